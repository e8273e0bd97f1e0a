package manager

import (
	"errors"
	"strings"
	"testing"

	"student-tracker/internal/models"
	"student-tracker/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newManagers(t *testing.T) (*StudentManager, *TaskManager, int) {
	t.Helper()
	s := storage.NewMemoryStorage()
	sm := NewStudentManager(s)
	id, err := sm.CreateStudent(models.NewStudent{FirstName: "Ivan", LastName: "Petrov", AssignedDate: "2024-09-01"})
	require.NoError(t, err)
	return sm, NewTaskManager(s), id
}

func TestAddTask(t *testing.T) {
	_, tm, studentID := newManagers(t)

	task, err := tm.AddTask(models.NewTask{StudentID: studentID, Description: "  Купить молоко  "})
	require.NoError(t, err)
	assert.Equal(t, 1, task.ID)
	assert.Equal(t, "Купить молоко", task.Description)
	assert.False(t, task.Completed)

	tasks, err := tm.ListTasks(studentID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestAddEmptyTask(t *testing.T) {
	_, tm, studentID := newManagers(t)

	_, err := tm.AddTask(models.NewTask{StudentID: studentID, Description: "   "})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Empty description", verr.Error())
}

func TestAddTaskUnknownStudent(t *testing.T) {
	_, tm, _ := newManagers(t)

	_, err := tm.AddTask(models.NewTask{StudentID: 99, Description: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAddTaskWithMaxLength(t *testing.T) {
	_, tm, studentID := newManagers(t)

	// ровно 200 символов (кириллица считается по рунам)
	validDesc := strings.Repeat("я", 200)
	_, err := tm.AddTask(models.NewTask{StudentID: studentID, Description: validDesc})
	assert.NoError(t, err)

	_, err = tm.AddTask(models.NewTask{StudentID: studentID, Description: validDesc + "я"})
	assert.Error(t, err)
}

func TestEditToggleDelete(t *testing.T) {
	_, tm, studentID := newManagers(t)

	task, err := tm.AddTask(models.NewTask{StudentID: studentID, Description: "draft"})
	require.NoError(t, err)

	edited, err := tm.EditTask(task.ID, " final ")
	require.NoError(t, err)
	assert.Equal(t, "final", edited.Description)

	_, err = tm.EditTask(task.ID, "")
	assert.Error(t, err)

	toggled, err := tm.ToggleTask(task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	require.NoError(t, tm.DeleteTask(task.ID))
	assert.True(t, errors.Is(tm.DeleteTask(task.ID), models.ErrNotFound))
}

func TestCreateStudentValidation(t *testing.T) {
	sm, _, _ := newManagers(t)

	_, err := sm.CreateStudent(models.NewStudent{FirstName: " ", LastName: "X", AssignedDate: "2024-01-01"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = sm.CreateStudent(models.NewStudent{FirstName: "A", LastName: "B", AssignedDate: "01/01/2024"})
	assert.Error(t, err)

	_, err = sm.CreateStudent(models.NewStudent{FirstName: "A", LastName: "B", AssignedDate: "2024-01-01", DOB: "yesterday"})
	assert.Error(t, err)

	id, err := sm.CreateStudent(models.NewStudent{FirstName: " A ", LastName: "B", AssignedDate: "2024-01-01"})
	require.NoError(t, err)
	st, err := sm.GetStudent(id)
	require.NoError(t, err)
	assert.Equal(t, "A", st.FirstName)
}

func TestTaskMetrics(t *testing.T) {
	// Сохраняем оригинальные метрики
	originalAdd := addTaskCount
	originalDelete := deleteTaskCount
	originalLength := taskDescLength
	defer func() {
		addTaskCount = originalAdd
		deleteTaskCount = originalDelete
		taskDescLength = originalLength
	}()

	registry := prometheus.NewRegistry()
	addTaskCount = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tracker_tasks_added_total", Help: "Test counter"}, []string{"status"})
	deleteTaskCount = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tracker_tasks_deleted_total", Help: "Test counter"}, []string{"status"})
	taskDescLength = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "tracker_task_desc_length_bytes", Help: "Test histogram", Buckets: []float64{25, 50, 100, 200}})
	registry.MustRegister(addTaskCount, deleteTaskCount, taskDescLength)

	_, tm, studentID := newManagers(t)

	task, err := tm.AddTask(models.NewTask{StudentID: studentID, Description: "Valid description"})
	require.NoError(t, err)
	_, err = tm.AddTask(models.NewTask{StudentID: studentID, Description: ""})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(addTaskCount.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(addTaskCount.WithLabelValues("error")))

	require.NoError(t, tm.DeleteTask(task.ID))
	require.Error(t, tm.DeleteTask(task.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(deleteTaskCount.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(deleteTaskCount.WithLabelValues("error")))

	metrics, err := registry.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range metrics {
		if mf.GetName() == "tracker_task_desc_length_bytes" {
			found = true
			assert.EqualValues(t, 1, mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	assert.True(t, found, "histogram metric not found")
}
