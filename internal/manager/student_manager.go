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

var createStudentCount = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tracker_students_created_total",
		Help: "Total number of CreateStudent operations",
	},
	[]string{"status"},
)

// ErrMissingFields текст совпадает с ответом формы
var ErrMissingFields = &models.ValidationError{Message: "Missing required fields"}

type StudentManager struct {
	storage storage.Storage
}

func NewStudentManager(s storage.Storage) *StudentManager {
	return &StudentManager{storage: s}
}

// CreateStudent обрезает пробелы, проверяет обязательные поля и даты
func (sm *StudentManager) CreateStudent(req models.NewStudent) (id int, err error) {
	defer func() { createStudentCount.WithLabelValues(status(err)).Inc() }()

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.AssignedDate = strings.TrimSpace(req.AssignedDate)
	req.DOB = strings.TrimSpace(req.DOB)
	req.Citizenship = strings.TrimSpace(req.Citizenship)
	req.IntendedMajor = strings.TrimSpace(req.IntendedMajor)
	req.EntrySemester = strings.TrimSpace(req.EntrySemester)

	if req.FirstName == "" || req.LastName == "" || req.AssignedDate == "" {
		return 0, ErrMissingFields
	}
	if utf8.RuneCountInString(req.FirstName) > models.MaxNameLen || utf8.RuneCountInString(req.LastName) > models.MaxNameLen {
		return 0, &models.ValidationError{Field: "name", Message: "must not exceed 50 characters"}
	}
	if _, err := time.Parse(models.DateLayout, req.AssignedDate); err != nil {
		return 0, &models.ValidationError{Field: "assigned_date", Message: "expected YYYY-MM-DD"}
	}
	if req.DOB != "" {
		if _, err := time.Parse(models.DateLayout, req.DOB); err != nil {
			return 0, &models.ValidationError{Field: "dob", Message: "expected YYYY-MM-DD"}
		}
	}

	return sm.storage.CreateStudent(req)
}

func (sm *StudentManager) GetStudent(id int) (*models.Student, error) {
	return sm.storage.GetStudent(id)
}

func (sm *StudentManager) ListStudents() ([]models.Student, error) {
	return sm.storage.ListStudents()
}

func (sm *StudentManager) DeleteStudent(id int) error {
	return sm.storage.DeleteStudent(id)
}
