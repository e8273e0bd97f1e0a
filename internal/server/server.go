package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"student-tracker/internal/logger"
	"student-tracker/internal/manager"
	"student-tracker/internal/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	students *manager.StudentManager
	tasks    *manager.TaskManager
	tmpl     *web.Templates
}

func NewRouter(sm *manager.StudentManager, tm *manager.TaskManager) (*chi.Mux, error) {
	tmpl, err := web.ParseTemplates()
	if err != nil {
		return nil, err
	}
	s := &Server{students: sm, tasks: tm, tmpl: tmpl}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger.L()))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	r.Group(func(r chi.Router) {
		r.Use(CSRF)

		r.Get("/csrf", csrfHandler)

		// страницы
		r.Get("/", s.dashboard)
		r.Get("/student/{id:[0-9]+}", s.studentDetail)
		r.Get("/add", s.addStudentForm)
		r.Post("/add", s.addStudent)

		// задачи
		r.Post("/student/{id:[0-9]+}/add_task", s.addTask)
		r.Post("/task/{id:[0-9]+}/toggle", s.toggleTask)
		r.Post("/task/{id:[0-9]+}/delete", s.deleteTask)
		r.Post("/task/{id:[0-9]+}/edit", s.editTask)

		r.Get("/api/tasks", s.listTasks)
	})

	return r, nil
}

// pathID достаёт {id}; ok == false -> ответ 404 уже отправлен
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// isAJAX запрос от скрипта, а не обычная навигация
func isAJAX(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" || isJSON(r)
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(context.Background(), err, "Ошибка записи JSON-ответа")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}
