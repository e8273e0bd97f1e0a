package web

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"time"

	"student-tracker/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Static файлы для /static/*
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page общие поля всех страниц
type Page struct {
	Title     string
	CSRFToken string
}

type DashboardPage struct {
	Page
	Students []models.Student
	AllTasks []models.Task
	// имена студентов для колонки "Student" в общем списке задач
	StudentNames map[int]string
}

type StudentPage struct {
	Page
	Student *models.Student
}

type AddStudentPage struct {
	Page
	Error string
}

var funcs = template.FuncMap{
	"overdue": func(t models.Task) bool {
		return !t.Completed && t.Deadline != nil && t.Deadline.Before(time.Now().Truncate(24*time.Hour))
	},
}

// Templates набор страниц; каждая страница парсится вместе с layout
type Templates struct {
	pages map[string]*template.Template
}

func ParseTemplates() (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template)}
	for _, name := range []string{"dashboard.html", "student_detail.html", "add_student.html"} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

func (t *Templates) Render(w io.Writer, name string, data interface{}) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fs.ErrNotExist
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
