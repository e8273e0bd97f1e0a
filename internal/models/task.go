package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout формат дат в формах и в БД
const DateLayout = "2006-01-02"

const (
	MaxDescriptionLen = 200
	MaxNameLen        = 50
)

// ErrNotFound возвращается хранилищем, если запись не существует
var ErrNotFound = errors.New("not found")

// ValidationError ошибка входных данных (отдаётся клиенту как 400)
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Task struct {
	ID          int        `json:"id"`
	StudentID   int        `json:"student_id"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// DeadlineString для шаблонов и CSV-подобного вывода
func (t Task) DeadlineString() string {
	if t.Deadline == nil {
		return ""
	}
	return t.Deadline.Format(DateLayout)
}

// ElementID идентификатор строки задачи на странице
func (t Task) ElementID() string {
	return TaskElementID(t.ID)
}

func TaskElementID(id int) string {
	return fmt.Sprintf("task-%d", id)
}

// NewTask запрос на создание задачи
type NewTask struct {
	StudentID   int
	Description string
	Deadline    *time.Time
}

// ParseDeadline разбирает дату из формы; пустая строка - без дедлайна
func ParseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, &ValidationError{Field: "deadline", Message: "expected YYYY-MM-DD"}
	}
	return &d, nil
}
