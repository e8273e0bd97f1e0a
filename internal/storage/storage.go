package storage

import (
	"sort"
	"strings"
	"sync"

	"student-tracker/internal/models"
)

// Storage интерфейс для абстракции хранилища
type Storage interface {
	// Students
	CreateStudent(s models.NewStudent) (int, error)
	GetStudent(id int) (*models.Student, error)
	ListStudents() ([]models.Student, error)
	DeleteStudent(id int) error

	// Tasks
	AddTask(t models.NewTask) (int, error)
	GetTask(id int) (*models.Task, error)
	ListTasks() ([]models.Task, error)
	ListStudentTasks(studentID int) ([]models.Task, error)
	ToggleTask(id int) (*models.Task, error)
	UpdateTaskDescription(id int, description string) (*models.Task, error)
	DeleteTask(id int) error

	// Закрытие соединения
	Close() error
}

// MemoryStorage in-memory хранилище для тестов и запуска без БД
type MemoryStorage struct {
	students map[int]models.Student
	tasks    map[int]models.Task
	nextID   int
	nextTask int
	mu       sync.Mutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		students: make(map[int]models.Student),
		tasks:    make(map[int]models.Task),
		nextID:   1,
		nextTask: 1,
	}
}

func (m *MemoryStorage) CreateStudent(s models.NewStudent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.students[id] = models.Student{
		ID:            id,
		FirstName:     s.FirstName,
		LastName:      s.LastName,
		DOB:           s.DOB,
		Citizenship:   s.Citizenship,
		IntendedMajor: s.IntendedMajor,
		EntrySemester: s.EntrySemester,
		EntryYear:     s.EntryYear,
		AssignedDate:  s.AssignedDate,
	}
	m.nextID++
	return id, nil
}

func (m *MemoryStorage) GetStudent(id int) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	s.Tasks = m.studentTasksLocked(id)
	return &s, nil
}

func (m *MemoryStorage) ListStudents() ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	students := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		s.Tasks = m.studentTasksLocked(s.ID)
		students = append(students, s)
	}
	SortStudents(students)
	return students, nil
}

func (m *MemoryStorage) DeleteStudent(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.students, id)
	// каскадное удаление задач
	for tid, t := range m.tasks {
		if t.StudentID == id {
			delete(m.tasks, tid)
		}
	}
	return nil
}

func (m *MemoryStorage) AddTask(t models.NewTask) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[t.StudentID]; !ok {
		return 0, models.ErrNotFound
	}
	id := m.nextTask
	m.tasks[id] = models.Task{
		ID:          id,
		StudentID:   t.StudentID,
		Description: t.Description,
		Deadline:    t.Deadline,
	}
	m.nextTask++
	return id, nil
}

func (m *MemoryStorage) GetTask(id int) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &t, nil
}

func (m *MemoryStorage) ListTasks() ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	SortByDeadline(tasks)
	return tasks, nil
}

func (m *MemoryStorage) ListStudentTasks(studentID int) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[studentID]; !ok {
		return nil, models.ErrNotFound
	}
	return m.studentTasksLocked(studentID), nil
}

func (m *MemoryStorage) studentTasksLocked(studentID int) []models.Task {
	tasks := []models.Task{}
	for _, t := range m.tasks {
		if t.StudentID == studentID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

func (m *MemoryStorage) ToggleTask(id int) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	t.Completed = !t.Completed
	m.tasks[id] = t
	return &t, nil
}

func (m *MemoryStorage) UpdateTaskDescription(id int, description string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	t.Description = description
	m.tasks[id] = t
	return &t, nil
}

func (m *MemoryStorage) DeleteTask(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

// SortStudents порядок дашборда: entry_year DESC NULLS LAST,
// entry_semester ASC NULLS FIRST, assigned_date DESC NULLS LAST
func SortStudents(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		switch {
		case a.EntryYear == nil && b.EntryYear != nil:
			return false
		case a.EntryYear != nil && b.EntryYear == nil:
			return true
		case a.EntryYear != nil && *a.EntryYear != *b.EntryYear:
			return *a.EntryYear > *b.EntryYear
		}
		if a.EntrySemester != b.EntrySemester {
			if a.EntrySemester == "" || b.EntrySemester == "" {
				return a.EntrySemester == ""
			}
			return strings.Compare(a.EntrySemester, b.EntrySemester) < 0
		}
		if a.AssignedDate != b.AssignedDate {
			if a.AssignedDate == "" || b.AssignedDate == "" {
				return b.AssignedDate == ""
			}
			return a.AssignedDate > b.AssignedDate
		}
		return a.ID < b.ID
	})
}

// SortByDeadline deadline ASC NULLS LAST, затем по ID
func SortByDeadline(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].Deadline, tasks[j].Deadline
		switch {
		case a == nil && b != nil:
			return false
		case a != nil && b == nil:
			return true
		case a != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return tasks[i].ID < tasks[j].ID
	})
}
