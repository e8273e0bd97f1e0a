package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"student-tracker/internal/logger"
	"student-tracker/internal/manager"
	"student-tracker/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// sender часть BotAPI, которая нужна обработчикам (подменяется в тестах)
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	sender   sender
	students *manager.StudentManager
	tasks    *manager.TaskManager
}

func New(token string, sm *manager.StudentManager, tm *manager.TaskManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	logger.Info(context.Background(), "Авторизован в Telegram", "username", api.Self.UserName)

	return &Bot{api: api, sender: api, students: sm, tasks: tm}, nil
}

// Run слушает обновления до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("ошибка получения updates: %w", err)
	}

	logger.Info(ctx, "Бот запущен и слушает сообщения...")

	return b.serve(ctx, updates, b.api.StopReceivingUpdates)
}

// serve раздаёт сообщения обработчикам; возвращается только после завершения всех обработчиков
func (b *Bot) serve(ctx context.Context, updates <-chan tgbotapi.Update, stop func()) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			stop()
			logger.Info(ctx, "Бот остановлен, ждём обработчики")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user := ""
	if msg.From != nil {
		user = msg.From.UserName
	}
	logger.Info(ctx, "Получено сообщение", "user", user, "text", msg.Text)

	if !msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, "Используйте /help для списка команд.")
		return
	}
	b.sendMessage(msg.Chat.ID, b.handleCommand(msg.Command(), msg.CommandArguments()))
}

// handleCommand возвращает текст ответа на команду
func (b *Bot) handleCommand(command, args string) string {
	switch command {
	case "start", "help":
		return helpText
	case "students":
		return b.listStudents()
	case "tasks":
		return b.listTasks(args)
	case "add":
		return b.addTask(args)
	case "done":
		return b.toggleTask(args)
	case "delete":
		return b.deleteTask(args)
	default:
		return "Неизвестная команда. Используйте /help для списка команд."
	}
}

const helpText = `🎓 *Student Tracker*

*Команды:*
/students - Список студентов
/tasks [id студента] - Задачи (все или одного студента)
/add [id студента] [задача] [ГГГГ-ММ-ДД] - Добавить задачу
/done [id задачи] - Переключить выполнение
/delete [id задачи] - Удалить задачу
/help - Помощь

*Примеры:*
/add 1 Отправить документы 2025-03-01
/done 4`

func (b *Bot) listStudents() string {
	students, err := b.students.ListStudents()
	if err != nil {
		return "❌ Ошибка: " + err.Error()
	}
	if len(students) == 0 {
		return "📭 Студентов пока нет"
	}

	var sb strings.Builder
	sb.WriteString("👥 *Студенты:*\n\n")
	for _, st := range students {
		open := 0
		for _, t := range st.Tasks {
			if !t.Completed {
				open++
			}
		}
		sb.WriteString(fmt.Sprintf("#%d %s (открытых задач: %d)\n", st.ID, st.FullName(), open))
	}
	return sb.String()
}

func (b *Bot) listTasks(args string) string {
	studentID := 0
	if args = strings.TrimSpace(args); args != "" {
		id, err := strconv.Atoi(args)
		if err != nil {
			return "Номер студента должен быть числом"
		}
		studentID = id
	}

	tasks, err := b.tasks.ListTasks(studentID)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Sprintf("❌ Студент #%d не найден", studentID)
	}
	if err != nil {
		return "❌ Ошибка: " + err.Error()
	}
	if len(tasks) == 0 {
		return "📭 Список задач пуст"
	}

	var sb strings.Builder
	sb.WriteString("📋 *Задачи:*\n\n")
	for _, t := range tasks {
		status := "🟢"
		if t.Completed {
			status = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s #%d: %s", status, t.ID, t.Description))
		if t.Deadline != nil {
			sb.WriteString(" ⏰ " + t.DeadlineString())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *Bot) addTask(args string) string {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "Укажите студента и задачу: /add 1 Отправить документы"
	}
	studentID, err := strconv.Atoi(fields[0])
	if err != nil {
		return "Номер студента должен быть числом"
	}

	fields = fields[1:]
	// последний аргумент может быть дедлайном
	var deadline *time.Time
	if len(fields) > 1 {
		if d, err := models.ParseDeadline(fields[len(fields)-1]); err == nil && d != nil {
			deadline = d
			fields = fields[:len(fields)-1]
		}
	}

	task, err := b.tasks.AddTask(models.NewTask{
		StudentID:   studentID,
		Description: strings.Join(fields, " "),
		Deadline:    deadline,
	})
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Sprintf("❌ Студент #%d не найден", studentID)
	}
	if err != nil {
		return "❌ Ошибка: " + err.Error()
	}

	response := fmt.Sprintf("✅ *Задача добавлена!*\n\nID: #%d\nЗадача: %s", task.ID, task.Description)
	if deadline != nil {
		response += "\nСрок: " + task.DeadlineString()
	}
	return response
}

func parseTaskID(args, usage string) (int, string) {
	args = strings.TrimSpace(args)
	if args == "" {
		return 0, "Укажите номер задачи: " + usage
	}
	id, err := strconv.Atoi(args)
	if err != nil {
		return 0, "Номер задачи должен быть числом"
	}
	return id, ""
}

func (b *Bot) toggleTask(args string) string {
	id, problem := parseTaskID(args, "/done 1")
	if problem != "" {
		return problem
	}

	task, err := b.tasks.ToggleTask(id)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Sprintf("❌ Задача #%d не найдена", id)
	}
	if err != nil {
		return "❌ Ошибка: " + err.Error()
	}
	if task.Completed {
		return fmt.Sprintf("✅ Задача #%d отмечена выполненной!", id)
	}
	return fmt.Sprintf("🟢 Задача #%d снова открыта", id)
}

func (b *Bot) deleteTask(args string) string {
	id, problem := parseTaskID(args, "/delete 1")
	if problem != "" {
		return problem
	}

	err := b.tasks.DeleteTask(id)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Sprintf("❌ Задача #%d не найдена", id)
	}
	if err != nil {
		logger.Error(context.Background(), err, "Ошибка удаления задачи", "taskID", id)
		return "❌ Ошибка: " + err.Error()
	}
	return fmt.Sprintf("🗑️ Задача #%d удалена!", id)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"

	if _, err := b.sender.Send(msg); err != nil {
		logger.Error(context.Background(), err, "Ошибка отправки сообщения", "chatID", chatID)
	}
}
