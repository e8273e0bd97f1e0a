package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"student-tracker/internal/models"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverModernc чистый Go, по умолчанию
	DriverModernc = "sqlite"
	// DriverCGO требует сборки с CGO_ENABLED=1
	DriverCGO = "sqlite3"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(driver, dbPath string) (*SQLiteStorage, error) {
	if driver == "" {
		driver = DriverModernc
	}
	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}
	// одно соединение: PRAGMA foreign_keys действует на соединение
	db.SetMaxOpenConns(1)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка включения foreign_keys: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStorage{db: db}, nil
}

// Migrate создаёт таблицы и доводит старые базы до текущей схемы
func Migrate(db *sql.DB) error {
	createStudentsTable := `
	CREATE TABLE IF NOT EXISTS student (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name VARCHAR(50) NOT NULL,
		last_name VARCHAR(50) NOT NULL,
		dob VARCHAR(10),
		citizenship VARCHAR(50),
		intended_major VARCHAR(100),
		entry_semester VARCHAR(20),
		entry_year INTEGER,
		assigned_date VARCHAR(10) NOT NULL
	)`

	createTasksTable := `
	CREATE TABLE IF NOT EXISTS task (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL,
		description VARCHAR(200) NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		deadline DATE,
		FOREIGN KEY (student_id) REFERENCES student (id) ON DELETE CASCADE
	)`

	if _, err := db.Exec(createStudentsTable); err != nil {
		return fmt.Errorf("ошибка создания таблицы student: %w", err)
	}
	if _, err := db.Exec(createTasksTable); err != nil {
		return fmt.Errorf("ошибка создания таблицы task: %w", err)
	}

	// Базы первых версий создавались без колонки deadline
	has, err := hasColumn(db, "task", "deadline")
	if err != nil {
		return err
	}
	if !has {
		if _, err := db.Exec("ALTER TABLE task ADD COLUMN deadline DATE"); err != nil {
			return fmt.Errorf("ошибка добавления колонки deadline: %w", err)
		}
	}
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_task_student ON task (student_id)"); err != nil {
		return fmt.Errorf("ошибка создания индекса: %w", err)
	}
	return nil
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, fmt.Errorf("ошибка чтения схемы %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// DB для команд обслуживания (migrate)
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Закрытие соединения
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func nullString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

// Методы для работы со студентами
func (s *SQLiteStorage) CreateStudent(st models.NewStudent) (int, error) {
	query := `
	INSERT INTO student (first_name, last_name, dob, citizenship, intended_major, entry_semester, entry_year, assigned_date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var entryYear interface{}
	if st.EntryYear != nil {
		entryYear = *st.EntryYear
	}

	result, err := s.db.Exec(query,
		st.FirstName, st.LastName, nullString(st.DOB), nullString(st.Citizenship),
		nullString(st.IntendedMajor), nullString(st.EntrySemester), entryYear, st.AssignedDate,
	)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	return int(id), err
}

const studentColumns = `id, first_name, last_name, dob, citizenship, intended_major, entry_semester, entry_year, assigned_date`

func scanStudent(row interface{ Scan(...interface{}) error }) (models.Student, error) {
	var st models.Student
	var dob, citizenship, major, semester, assigned sql.NullString
	var year sql.NullInt64

	err := row.Scan(&st.ID, &st.FirstName, &st.LastName, &dob, &citizenship,
		&major, &semester, &year, &assigned)
	if err != nil {
		return st, err
	}
	st.DOB = dob.String
	st.Citizenship = citizenship.String
	st.IntendedMajor = major.String
	st.EntrySemester = semester.String
	st.AssignedDate = assigned.String
	if year.Valid {
		y := int(year.Int64)
		st.EntryYear = &y
	}
	return st, nil
}

func (s *SQLiteStorage) GetStudent(id int) (*models.Student, error) {
	row := s.db.QueryRow("SELECT "+studentColumns+" FROM student WHERE id = ?", id)
	st, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	st.Tasks, err = s.ListStudentTasks(id)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SQLiteStorage) ListStudents() ([]models.Student, error) {
	query := "SELECT " + studentColumns + ` FROM student
	ORDER BY entry_year DESC NULLS LAST, entry_semester ASC NULLS FIRST, assigned_date DESC NULLS LAST, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}

	var students []models.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// закрываем до вложенных запросов: соединение одно
	rows.Close()

	for i := range students {
		students[i].Tasks, err = s.ListStudentTasks(students[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return students, nil
}

func (s *SQLiteStorage) DeleteStudent(id int) error {
	result, err := s.db.Exec("DELETE FROM student WHERE id = ?", id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Методы для работы с задачами
func (s *SQLiteStorage) AddTask(t models.NewTask) (int, error) {
	if err := s.checkStudent(t.StudentID); err != nil {
		return 0, err
	}

	query := `
	INSERT INTO task (student_id, description, completed, deadline)
	VALUES (?, ?, ?, ?)`

	var deadline interface{}
	if t.Deadline != nil {
		deadline = t.Deadline.Format(models.DateLayout)
	}

	result, err := s.db.Exec(query, t.StudentID, t.Description, false, deadline)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	return int(id), err
}

const taskColumns = `id, student_id, description, completed, deadline`

func (s *SQLiteStorage) GetTask(id int) (*models.Task, error) {
	rows, err := s.db.Query("SELECT "+taskColumns+" FROM task WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, models.ErrNotFound
	}
	return &tasks[0], nil
}

func (s *SQLiteStorage) ListTasks() ([]models.Task, error) {
	rows, err := s.db.Query("SELECT " + taskColumns + " FROM task ORDER BY deadline ASC NULLS LAST, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// checkStudent ErrNotFound, если студента нет
func (s *SQLiteStorage) checkStudent(id int) error {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM student WHERE id = ?", id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) ListStudentTasks(studentID int) ([]models.Task, error) {
	if err := s.checkStudent(studentID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT "+taskColumns+" FROM task WHERE student_id = ? ORDER BY id", studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *SQLiteStorage) ToggleTask(id int) (*models.Task, error) {
	result, err := s.db.Exec("UPDATE task SET completed = NOT completed WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if err := checkAffected(result); err != nil {
		return nil, err
	}
	return s.GetTask(id)
}

func (s *SQLiteStorage) UpdateTaskDescription(id int, description string) (*models.Task, error) {
	result, err := s.db.Exec("UPDATE task SET description = ? WHERE id = ?", description, id)
	if err != nil {
		return nil, err
	}
	if err := checkAffected(result); err != nil {
		return nil, err
	}
	return s.GetTask(id)
}

func (s *SQLiteStorage) DeleteTask(id int) error {
	result, err := s.db.Exec("DELETE FROM task WHERE id = ?", id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Вспомогательная функция для сканирования задач
func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		var deadline sql.NullString

		err := rows.Scan(&task.ID, &task.StudentID, &task.Description, &task.Completed, &deadline)
		if err != nil {
			return nil, err
		}

		if deadline.Valid && deadline.String != "" {
			d, err := parseStoredDate(deadline.String)
			if err != nil {
				return nil, fmt.Errorf("задача %d: некорректный deadline %q: %w", task.ID, deadline.String, err)
			}
			task.Deadline = &d
		}

		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// parseStoredDate принимает и "2006-01-02", и полный timestamp:
// драйверы по-разному возвращают колонку типа DATE
func parseStoredDate(s string) (time.Time, error) {
	if len(s) >= len(models.DateLayout) {
		if d, err := time.Parse(models.DateLayout, s[:len(models.DateLayout)]); err == nil {
			return d, nil
		}
	}
	return time.Parse(time.RFC3339, s)
}
