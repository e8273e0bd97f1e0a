package manager

import (
	"strings"
	"time"
	"unicode/utf8"

	"student-tracker/internal/models"
	"student-tracker/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	addTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_tasks_added_total",
			Help: "Total number of AddTask operations",
		},
		[]string{"status"},
	)

	deleteTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_tasks_deleted_total",
			Help: "Total number of DeleteTask operations",
		},
		[]string{"status"},
	)

	toggleTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_tasks_toggled_total",
			Help: "Total number of ToggleTask operations",
		},
		[]string{"status"},
	)

	editTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_tasks_edited_total",
			Help: "Total number of EditTask operations",
		},
		[]string{"status"},
	)

	taskDescLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_task_desc_length_bytes",
			Help:    "Length distribution of task descriptions",
			Buckets: []float64{25, 50, 100, 200},
		},
	)

	taskOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_task_op_duration_seconds",
			Help:    "Duration of task operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func observe(op string, start time.Time) {
	taskOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

type TaskManager struct {
	storage storage.Storage
}

func NewTaskManager(s storage.Storage) *TaskManager {
	return &TaskManager{storage: s}
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", &models.ValidationError{Message: "Empty description"}
	}
	if utf8.RuneCountInString(description) > models.MaxDescriptionLen {
		return "", &models.ValidationError{Field: "description", Message: "must not exceed 200 characters"}
	}
	return description, nil
}

// AddTask проверяет описание и добавляет задачу студенту
func (tm *TaskManager) AddTask(req models.NewTask) (task *models.Task, err error) {
	defer observe("add", time.Now())
	defer func() { addTaskCount.WithLabelValues(status(err)).Inc() }()

	req.Description, err = validateDescription(req.Description)
	if err != nil {
		return nil, err
	}

	id, err := tm.storage.AddTask(req)
	if err != nil {
		return nil, err
	}

	taskDescLength.Observe(float64(len(req.Description)))
	return &models.Task{
		ID:          id,
		StudentID:   req.StudentID,
		Description: req.Description,
		Deadline:    req.Deadline,
	}, nil
}

func (tm *TaskManager) GetTask(id int) (*models.Task, error) {
	return tm.storage.GetTask(id)
}

// ListTasks все задачи (studentID == 0) или задачи одного студента
func (tm *TaskManager) ListTasks(studentID int) ([]models.Task, error) {
	if studentID == 0 {
		return tm.storage.ListTasks()
	}
	return tm.storage.ListStudentTasks(studentID)
}

func (tm *TaskManager) ToggleTask(id int) (task *models.Task, err error) {
	defer observe("toggle", time.Now())
	defer func() { toggleTaskCount.WithLabelValues(status(err)).Inc() }()

	return tm.storage.ToggleTask(id)
}

func (tm *TaskManager) EditTask(id int, description string) (task *models.Task, err error) {
	defer observe("edit", time.Now())
	defer func() { editTaskCount.WithLabelValues(status(err)).Inc() }()

	description, err = validateDescription(description)
	if err != nil {
		return nil, err
	}
	return tm.storage.UpdateTaskDescription(id, description)
}

func (tm *TaskManager) DeleteTask(id int) (err error) {
	defer observe("delete", time.Now())
	defer func() { deleteTaskCount.WithLabelValues(status(err)).Inc() }()

	return tm.storage.DeleteTask(id)
}
