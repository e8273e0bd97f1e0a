package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"student-tracker/internal/logger"
	"student-tracker/internal/models"
)

type taskInput struct {
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
}

// readTaskInput понимает и форму, и JSON-тело
func readTaskInput(r *http.Request) (taskInput, error) {
	var in taskInput
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, &models.ValidationError{Message: "Invalid JSON body"}
		}
		return in, nil
	}
	if err := r.ParseForm(); err != nil {
		return in, &models.ValidationError{Message: "Invalid form"}
	}
	in.Description = r.PostForm.Get("description")
	in.Deadline = r.PostForm.Get("deadline")
	return in, nil
}

type taskSummary struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func (s *Server) addTask(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := s.students.GetStudent(studentID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.Error(r.Context(), err, "Ошибка получения студента", "studentID", studentID)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	in, err := readTaskInput(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	deadline, err := models.ParseDeadline(in.Deadline)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := s.tasks.AddTask(models.NewTask{StudentID: studentID, Description: in.Description, Deadline: deadline})
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSONError(w, http.StatusBadRequest, verr.Error())
		return
	case errors.Is(err, models.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		logger.Error(r.Context(), err, "Ошибка добавления задачи", "studentID", studentID)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info(r.Context(), "Задача добавлена", "taskID", task.ID, "studentID", studentID)

	// AJAX получает JSON, обычная форма - редирект обратно
	if isAJAX(r) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"task":    taskSummary{ID: task.ID, Description: task.Description, Completed: task.Completed},
		})
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/student/%d", studentID), http.StatusSeeOther)
}

func (s *Server) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	task, err := s.tasks.ToggleTask(id)
	if errors.Is(err, models.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		logger.Error(r.Context(), err, "Ошибка переключения задачи", "taskID", id)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "completed": task.Completed})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := s.tasks.DeleteTask(id)
	if errors.Is(err, models.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		logger.Error(r.Context(), err, "Ошибка удаления задачи", "taskID", id)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info(r.Context(), "Задача удалена", "taskID", id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "task_id": id})
}

func (s *Server) editTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	in, err := readTaskInput(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := s.tasks.EditTask(id, in.Description)
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSONError(w, http.StatusBadRequest, verr.Error())
		return
	case errors.Is(err, models.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "Task not found")
		return
	case err != nil:
		logger.Error(r.Context(), err, "Ошибка редактирования задачи", "taskID", id)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "description": task.Description})
}

// listTasks GET /api/tasks[?student=ID]
func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	studentID := 0
	if v := r.URL.Query().Get("student"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			writeJSONError(w, http.StatusBadRequest, "Invalid student id")
			return
		}
		studentID = id
	}

	tasks, err := s.tasks.ListTasks(studentID)
	if errors.Is(err, models.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "Student not found")
		return
	}
	if err != nil {
		logger.Error(r.Context(), err, "Ошибка получения задач")
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "tasks": tasks})
}
