package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"student-tracker/internal/config"
	"student-tracker/internal/logger"
	"student-tracker/internal/storage"

	"github.com/spf13/cobra"
)

var (
	cfg config.Config

	configPath string
	flagAddr   string
	flagBase   string
	flagDriver string
	flagDB     string
	flagLevel  string
)

var rootCmd = &cobra.Command{
	Use:           "tracker",
	Short:         "Student and task tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		// флаги перекрывают файл и окружение
		flags := cmd.Flags()
		if flags.Changed("base-url") {
			cfg.BaseURL = flagBase
		}
		if flags.Changed("addr") {
			cfg.SetServerAddress(flagAddr, flags.Changed("base-url") || os.Getenv("BASE_URL") != "")
		}
		if flags.Changed("driver") {
			cfg.DatabaseDriver = flagDriver
		}
		if flags.Changed("db") {
			cfg.DatabasePath = flagDB
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = flagLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to YAML config (env TRACKER_CONFIG)")
	pf.StringVar(&flagAddr, "addr", ":5000", "HTTP listen address (env SERVER_ADDRESS)")
	pf.StringVar(&flagBase, "base-url", "", "server URL used by client commands (env BASE_URL)")
	pf.StringVar(&flagDriver, "driver", "sqlite", "database driver: sqlite|sqlite3|memory (env DATABASE_DRIVER)")
	pf.StringVar(&flagDB, "db", "./data/students.db", "SQLite database path (env DATABASE_PATH)")
	pf.StringVar(&flagLevel, "log-level", "info", "debug|info|error (env LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd, botCmd, migrateCmd, tasksCmd)
}

func activeConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return os.Getenv("TRACKER_CONFIG")
}

// openStorage SQLite по пути из конфига или in-memory для driver=memory
func openStorage(ctx context.Context) (storage.Storage, error) {
	if cfg.DatabaseDriver == "memory" {
		logger.Info(ctx, "Используется in-memory хранилище")
		return storage.NewMemoryStorage(), nil
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
		}
	}

	s, err := storage.NewSQLiteStorage(cfg.DatabaseDriver, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "SQLite хранилище инициализировано", "path", cfg.DatabasePath, "driver", cfg.DatabaseDriver)
	return s, nil
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
