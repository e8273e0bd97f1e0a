package server

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
)

const (
	csrfCookie = "csrf_token"
	csrfHeader = "X-CSRF-Token"
	csrfField  = "csrf_token"
)

type csrfKey struct{}

// CSRF защита по схеме double-submit cookie: для небезопасных методов
// значение из заголовка X-CSRF-Token (или поля формы csrf_token)
// должно совпадать с cookie csrf_token.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(csrfCookie); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				token = c.Value
			}
		}

		if !safeMethod(r.Method) {
			got := r.Header.Get(csrfHeader)
			if got == "" && !isJSON(r) {
				got = r.PostFormValue(csrfField)
			}
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				if isAJAX(r) {
					writeJSONError(w, http.StatusForbidden, "CSRF token missing or invalid")
				} else {
					http.Error(w, "CSRF token missing or invalid", http.StatusForbidden)
				}
				return
			}
		}

		if token == "" {
			token = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookie,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
	})
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// CSRFToken токен текущего запроса (для шаблонов)
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}

// csrfHandler выдаёт токен API-клиентам; cookie ставит middleware
func csrfHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": CSRFToken(r.Context())})
}
