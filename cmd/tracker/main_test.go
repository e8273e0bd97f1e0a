package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"student-tracker/internal/client"
	"student-tracker/internal/manager"
	"student-tracker/internal/models"
	"student-tracker/internal/server"
	"student-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMigrateSeed(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "students.db")

	_, err := execute(t, "migrate", "--driver", "sqlite", "--db", dbPath, "--seed")
	require.NoError(t, err)

	s, err := storage.NewSQLiteStorage(storage.DriverModernc, dbPath)
	require.NoError(t, err)
	defer s.Close()

	students, err := s.ListStudents()
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Demo Student", students[0].FullName())

	tasks, err := s.ListStudentTasks(students[0].ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestMigrateRejectsMemory(t *testing.T) {
	_, err := execute(t, "migrate", "--driver", "memory")
	assert.Error(t, err)
}

// trackerServer роутер на in-memory хранилище со счётчиком запросов
func trackerServer(t *testing.T) (*httptest.Server, *manager.StudentManager, *manager.TaskManager, *atomic.Int32) {
	t.Helper()
	s := storage.NewMemoryStorage()
	sm := manager.NewStudentManager(s)
	tm := manager.NewTaskManager(s)
	router, err := server.NewRouter(sm, tm)
	require.NoError(t, err)

	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, sm, tm, hits
}

func TestTasksDelete(t *testing.T) {
	srv, sm, tm, _ := trackerServer(t)

	sid, err := sm.CreateStudent(models.NewStudent{FirstName: "Ivan", LastName: "P", AssignedDate: "2024-09-01"})
	require.NoError(t, err)
	doomed, err := tm.AddTask(models.NewTask{StudentID: sid, Description: "Renew visa"})
	require.NoError(t, err)
	_, err = tm.AddTask(models.NewTask{StudentID: sid, Description: "Buy textbooks"})
	require.NoError(t, err)

	out, err := execute(t, "tasks", "delete", strconv.Itoa(doomed.ID), "--yes",
		"--base-url", srv.URL, "--student", strconv.Itoa(sid))
	require.NoError(t, err)
	assert.Contains(t, out, "Buy textbooks")
	assert.NotContains(t, out, "Renew visa")

	_, err = tm.GetTask(doomed.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// второй раз сервер отвечает 404: общий alert и ненулевой код выхода
	out, err = execute(t, "tasks", "delete", strconv.Itoa(doomed.ID), "--yes", "--base-url", srv.URL)
	assert.Error(t, err)
	assert.Contains(t, out, client.FailedMessage)

	_, err = execute(t, "tasks", "delete", "abc", "--base-url", srv.URL)
	assert.Error(t, err)

	out, err = execute(t, "tasks", "list", "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Buy textbooks")
}

func TestTasksDeleteDeclined(t *testing.T) {
	srv, sm, tm, hits := trackerServer(t)

	sid, err := sm.CreateStudent(models.NewStudent{FirstName: "Lena", LastName: "K", AssignedDate: "2024-09-01"})
	require.NoError(t, err)
	task, err := tm.AddTask(models.NewTask{StudentID: sid, Description: "Sign lease"})
	require.NoError(t, err)

	out, err := executeWithInput(t, "n\n", "tasks", "delete", strconv.Itoa(task.ID), "--yes=false", "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, client.ConfirmPrompt)
	assert.Zero(t, hits.Load(), "отказ не должен обращаться к серверу")

	_, err = tm.GetTask(task.ID)
	assert.NoError(t, err)
}

func TestTasksDeleteServerDown(t *testing.T) {
	srv, _, _, _ := trackerServer(t)
	srv.Close()

	out, err := execute(t, "tasks", "delete", "1", "--yes", "--base-url", srv.URL)
	assert.Error(t, err)
	assert.Contains(t, out, client.FailedMessage)
}
