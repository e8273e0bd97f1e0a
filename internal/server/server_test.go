package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"student-tracker/internal/manager"
	"student-tracker/internal/models"
	"student-tracker/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router   *chi.Mux
	students *manager.StudentManager
	tasks    *manager.TaskManager
	cookie   *http.Cookie
	token    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, storage.NewMemoryStorage())
}

func newTestEnvWith(t *testing.T, s storage.Storage) *testEnv {
	t.Helper()
	sm := manager.NewStudentManager(s)
	tm := manager.NewTaskManager(s)

	r, err := NewRouter(sm, tm)
	require.NoError(t, err)

	env := &testEnv{router: r, students: sm, tasks: tm}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/csrf", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	env.token = body["csrf_token"]
	require.NotEmpty(t, env.token)

	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookie {
			env.cookie = c
		}
	}
	require.NotNil(t, env.cookie)
	assert.Equal(t, env.token, env.cookie.Value)
	return env
}

func (e *testEnv) student(t *testing.T) int {
	t.Helper()
	id, err := e.students.CreateStudent(models.NewStudent{FirstName: "Maria", LastName: "Ivanova", AssignedDate: "2024-09-01"})
	require.NoError(t, err)
	return id
}

func (e *testEnv) task(t *testing.T, studentID int, desc string) int {
	t.Helper()
	task, err := e.tasks.AddTask(models.NewTask{StudentID: studentID, Description: desc})
	require.NoError(t, err)
	return task.ID
}

// post отправляет AJAX-запрос с корректным CSRF-токеном
func (e *testEnv) post(target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(http.MethodPost, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set(csrfHeader, e.token)
	req.AddCookie(e.cookie)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	sid := env.student(t)
	tid := env.task(t, sid, "Submit visa documents")

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name:       "existing task",
			target:     "/task/" + strconv.Itoa(tid) + "/delete",
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"success": true, "task_id": float64(tid)},
		},
		{
			name:       "already deleted",
			target:     "/task/" + strconv.Itoa(tid) + "/delete",
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]interface{}{"success": false, "error": "Task not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.post(tt.target, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, decode(t, rec))
		})
	}
}

func TestDeleteTaskNonNumericID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.post("/task/abc/delete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCSRFRequired(t *testing.T) {
	env := newTestEnv(t)
	sid := env.student(t)
	tid := env.task(t, sid, "keep me")

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/task/"+strconv.Itoa(tid)+"/delete", nil)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		req.AddCookie(env.cookie)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/task/"+strconv.Itoa(tid)+"/delete", nil)
		req.Header.Set(csrfHeader, env.token)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("form field", func(t *testing.T) {
		form := url.Values{"csrf_token": {env.token}, "description": {"from form"}}
		req := httptest.NewRequest(http.MethodPost, "/student/"+strconv.Itoa(sid)+"/add_task", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(env.cookie)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/student/"+strconv.Itoa(sid), rec.Header().Get("Location"))
	})

	_, err := env.tasks.GetTask(tid)
	assert.NoError(t, err, "task must survive rejected requests")
}

func TestAddTask(t *testing.T) {
	env := newTestEnv(t)
	sid := env.student(t)

	t.Run("ajax", func(t *testing.T) {
		rec := env.post("/student/"+strconv.Itoa(sid)+"/add_task", url.Values{"description": {" Book flight "}, "deadline": {"2025-01-15"}})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		task := body["task"].(map[string]interface{})
		assert.Equal(t, "Book flight", task["description"])
		assert.Equal(t, false, task["completed"])
	})

	t.Run("empty description", func(t *testing.T) {
		rec := env.post("/student/"+strconv.Itoa(sid)+"/add_task", url.Values{"description": {"  "}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, map[string]interface{}{"success": false, "error": "Empty description"}, decode(t, rec))
	})

	t.Run("bad deadline", func(t *testing.T) {
		rec := env.post("/student/"+strconv.Itoa(sid)+"/add_task", url.Values{"description": {"x"}, "deadline": {"15/01/2025"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown student", func(t *testing.T) {
		rec := env.post("/student/999/add_task", url.Values{"description": {"x"}})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestToggleAndEdit(t *testing.T) {
	env := newTestEnv(t)
	sid := env.student(t)
	tid := env.task(t, sid, "Draft essay")

	rec := env.post("/task/"+strconv.Itoa(tid)+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"success": true, "completed": true}, decode(t, rec))

	rec = env.post("/task/"+strconv.Itoa(tid)+"/edit", url.Values{"description": {"Final essay"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"success": true, "description": "Final essay"}, decode(t, rec))

	rec = env.post("/task/"+strconv.Itoa(tid)+"/edit", url.Values{"description": {""}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.post("/task/999/toggle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", decode(t, rec)["error"])
}

func TestAddStudent(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"first_name": {"Li"}, "last_name": {""}, "assigned_date": {"2024-01-01"}}
	rec := env.post("/add", form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required fields")

	form.Set("last_name", "Wei")
	form.Set("entry_year", "2025")
	rec = env.post("/add", form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	students, err := env.students.ListStudents()
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Li Wei", students[0].FullName())
}

func TestPages(t *testing.T) {
	env := newTestEnv(t)
	sid := env.student(t)
	tid := env.task(t, sid, "Upload passport scan")

	for _, target := range []string{"/", "/student/" + strconv.Itoa(sid)} {
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `id="task-`+strconv.Itoa(tid)+`"`)
		assert.Contains(t, rec.Body.String(), `name="csrf-token"`)
		assert.Contains(t, rec.Body.String(), "Upload passport scan")
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/student/999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/js/main.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "function deleteTask(taskId)")
}

// API должен вести себя одинаково на обоих хранилищах
func TestListTasksAPI(t *testing.T) {
	sqlite, err := storage.NewSQLiteStorage(storage.DriverModernc, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	for name, s := range map[string]storage.Storage{"memory": storage.NewMemoryStorage(), "sqlite": sqlite} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnvWith(t, s)
			sid := env.student(t)
			env.task(t, sid, "one")
			env.task(t, sid, "two")

			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks?student="+strconv.Itoa(sid), nil))
			require.Equal(t, http.StatusOK, rec.Code)
			tasks := decode(t, rec)["tasks"].([]interface{})
			assert.Len(t, tasks, 2)

			rec = httptest.NewRecorder()
			env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks?student=999", nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "Student not found", decode(t, rec)["error"])

			rec = httptest.NewRecorder()
			env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks?student=x", nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())

	env.task(t, env.student(t), "count me")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tracker_tasks_added_total")
}
