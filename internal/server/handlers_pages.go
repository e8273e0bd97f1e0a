package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"student-tracker/internal/logger"
	"student-tracker/internal/manager"
	"student-tracker/internal/models"
	"student-tracker/internal/web"
)

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.Render(w, name, data); err != nil {
		logger.Error(r.Context(), err, "Ошибка рендеринга шаблона", "template", name)
	}
}

func page(r *http.Request, title string) web.Page {
	return web.Page{Title: title, CSRFToken: CSRFToken(r.Context())}
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	students, err := s.students.ListStudents()
	if err != nil {
		logger.Error(r.Context(), err, "Ошибка получения студентов")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	tasks, err := s.tasks.ListTasks(0)
	if err != nil {
		logger.Error(r.Context(), err, "Ошибка получения задач")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	names := make(map[int]string, len(students))
	for _, st := range students {
		names[st.ID] = st.FullName()
	}

	s.render(w, r, http.StatusOK, "dashboard.html", web.DashboardPage{
		Page:         page(r, "Dashboard"),
		Students:     students,
		AllTasks:     tasks,
		StudentNames: names,
	})
}

func (s *Server) studentDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	student, err := s.students.GetStudent(id)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logger.Error(r.Context(), err, "Ошибка получения студента", "studentID", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, http.StatusOK, "student_detail.html", web.StudentPage{
		Page:    page(r, student.FullName()),
		Student: student,
	})
}

func (s *Server) addStudentForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "add_student.html", web.AddStudentPage{Page: page(r, "Add student")})
}

func (s *Server) addStudent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	req := models.NewStudent{
		FirstName:     r.PostForm.Get("first_name"),
		LastName:      r.PostForm.Get("last_name"),
		DOB:           r.PostForm.Get("dob"),
		Citizenship:   r.PostForm.Get("citizenship"),
		IntendedMajor: r.PostForm.Get("intended_major"),
		EntrySemester: r.PostForm.Get("entry_semester"),
		AssignedDate:  r.PostForm.Get("assigned_date"),
	}
	if y := strings.TrimSpace(r.PostForm.Get("entry_year")); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			http.Error(w, "Invalid entry year", http.StatusBadRequest)
			return
		}
		req.EntryYear = &year
	}

	id, err := s.students.CreateStudent(req)
	if errors.Is(err, manager.ErrMissingFields) {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		s.render(w, r, http.StatusBadRequest, "add_student.html", web.AddStudentPage{
			Page:  page(r, "Add student"),
			Error: verr.Error(),
		})
		return
	}
	if err != nil {
		logger.Error(r.Context(), err, "Ошибка создания студента")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info(r.Context(), "Студент создан", "studentID", id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
