package main

import (
	"errors"
	"fmt"
	"time"

	"student-tracker/internal/logger"
	"student-tracker/internal/manager"
	"student-tracker/internal/models"

	"github.com/spf13/cobra"
)

var seedDemo bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&seedDemo, "seed", false, "add a demo student with two tasks")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cfg.DatabaseDriver == "memory" {
		return errors.New("migrate работает только с SQLite")
	}

	// NewSQLiteStorage создаёт таблицы и добавляет недостающие колонки
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info(ctx, "Схема базы данных актуальна", "path", cfg.DatabasePath)

	if !seedDemo {
		return nil
	}

	sm := manager.NewStudentManager(store)
	tm := manager.NewTaskManager(store)

	year := time.Now().Year()
	id, err := sm.CreateStudent(models.NewStudent{
		FirstName:     "Demo",
		LastName:      "Student",
		IntendedMajor: "Computer Science",
		EntrySemester: "Fall",
		EntryYear:     &year,
		AssignedDate:  time.Now().Format(models.DateLayout),
	})
	if err != nil {
		return fmt.Errorf("ошибка создания демо-студента: %w", err)
	}

	deadline := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)
	for _, t := range []models.NewTask{
		{StudentID: id, Description: "Collect transcripts", Deadline: &deadline},
		{StudentID: id, Description: "Schedule advising meeting"},
	} {
		if _, err := tm.AddTask(t); err != nil {
			return fmt.Errorf("ошибка создания демо-задачи: %w", err)
		}
	}

	logger.Info(ctx, "Демо-данные добавлены", "studentID", id)
	return nil
}
