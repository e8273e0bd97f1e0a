package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"student-tracker/internal/models"
)

// maxErrorBody сколько тела ответа читаем для текста ошибки
const maxErrorBody = 4 << 10

// API HTTP-клиент трекера. Cookie jar нужен для CSRF (double-submit cookie).
type API struct {
	baseURL   string
	http      *http.Client
	csrfToken string
}

func NewAPI(baseURL string, httpClient *http.Client) (*API, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("некорректный base URL %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}, nil
}

// SetCSRFToken для окружений, где токен уже известен (страница браузера)
func (a *API) SetCSRFToken(token string) {
	a.csrfToken = token
}

// StatusError ответ сервера с кодом не 2xx
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded %d: %s", e.Status, e.Body)
}

// CSRFToken получает токен у сервера; cookie сохраняется в jar
func (a *API) CSRFToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/csrf", nil)
	if err != nil {
		return "", err
	}
	body, err := a.do(req)
	if err != nil {
		return "", err
	}

	var resp struct {
		Token string `json:"csrf_token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ошибка разбора ответа /csrf: %w", err)
	}
	a.csrfToken = resp.Token
	return resp.Token, nil
}

// ListTasks задачи студента (studentID == 0 - все задачи)
func (a *API) ListTasks(ctx context.Context, studentID int) ([]models.Task, error) {
	target := a.baseURL + "/api/tasks"
	if studentID != 0 {
		target += "?student=" + strconv.Itoa(studentID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	body, err := a.do(req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ошибка разбора списка задач: %w", err)
	}
	return resp.Tasks, nil
}

// PostDelete отправляет POST /task/{id}/delete и возвращает тело успешного ответа.
// Если токен ещё не известен, сначала запрашивает его у /csrf.
func (a *API) PostDelete(ctx context.Context, taskID string) ([]byte, error) {
	if a.csrfToken == "" {
		if _, err := a.CSRFToken(ctx); err != nil {
			return nil, fmt.Errorf("ошибка получения CSRF-токена: %w", err)
		}
	}

	target := a.baseURL + "/task/" + url.PathEscape(taskID) + "/delete"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-CSRF-Token", a.csrfToken)
	return a.do(req)
}

func (a *API) do(req *http.Request) ([]byte, error) {
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// тело читаем по возможности, ошибка чтения не важна
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Status: resp.StatusCode, Body: string(text)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	return body, nil
}
