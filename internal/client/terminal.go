package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"student-tracker/internal/logger"
	"student-tracker/internal/models"
)

// Prompt Confirmer для терминала: y/yes - согласие, всё остальное - отказ
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

func (p *Prompt) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// AlwaysConfirm для --yes
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(string) bool { return true }

type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Alert(msg string) {
	fmt.Fprintln(n.W, msg)
}

type lister interface {
	ListTasks(ctx context.Context, studentID int) ([]models.Task, error)
}

// TaskView терминальный Document: строки задач с идентификаторами task-{id}
type TaskView struct {
	mu        sync.Mutex
	api       lister
	studentID int
	out       io.Writer
	tasks     []models.Task
}

func NewTaskView(api *API, studentID int, out io.Writer) *TaskView {
	return &TaskView{api: api, studentID: studentID, out: out}
}

// Load загружает задачи с сервера без вывода
func (v *TaskView) Load(ctx context.Context) error {
	tasks, err := v.api.ListTasks(ctx, v.studentID)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.tasks = tasks
	v.mu.Unlock()
	return nil
}

func (v *TaskView) Remove(elementID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, t := range v.tasks {
		if t.ElementID() == elementID {
			v.tasks = append(v.tasks[:i], v.tasks[i+1:]...)
			v.renderLocked()
			return true
		}
	}
	return false
}

// Reload перечитывает список с сервера; ошибка только логируется
func (v *TaskView) Reload() {
	ctx := context.Background()
	if err := v.Load(ctx); err != nil {
		logger.Error(ctx, err, "Ошибка перезагрузки списка задач")
		return
	}
	v.Render()
}

func (v *TaskView) Render() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renderLocked()
}

func (v *TaskView) renderLocked() {
	if len(v.tasks) == 0 {
		fmt.Fprintln(v.out, "No tasks found")
		return
	}
	for _, t := range v.tasks {
		status := "Pending"
		if t.Completed {
			status = "Completed"
		}
		line := fmt.Sprintf("%-10s %s [%s]", t.ElementID(), t.Description, status)
		if t.Deadline != nil {
			line += " due " + t.DeadlineString()
		}
		fmt.Fprintln(v.out, line)
	}
}

func (v *TaskView) Tasks() []models.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Task(nil), v.tasks...)
}
