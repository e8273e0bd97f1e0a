package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"student-tracker/internal/bot"
	"student-tracker/internal/config"
	"student-tracker/internal/logger"
	"student-tracker/internal/manager"
	"student-tracker/internal/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var withBot bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (and optionally the Telegram bot)",
	RunE:  runServe,
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run only the Telegram bot (env TELEGRAM_TOKEN)",
	RunE:  runBot,
}

func init() {
	serveCmd.Flags().BoolVar(&withBot, "telegram", false, "also run the Telegram bot (requires TELEGRAM_TOKEN)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	sm := manager.NewStudentManager(store)
	tm := manager.NewTaskManager(store)

	router, err := server.NewRouter(sm, tm)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var b *bot.Bot
	if withBot {
		if b, err = bot.New(cfg.TelegramToken, sm, tm); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "HTTP-сервер запущен", "addr", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info(shutdownCtx, "Остановка HTTP-сервера...")
		return srv.Shutdown(shutdownCtx)
	})

	if b != nil {
		g.Go(func() error { return b.Run(gctx) })
	}

	// уровень логирования меняется без перезапуска
	if path := activeConfigPath(); path != "" {
		g.Go(func() error {
			err := config.Watch(gctx, path, func(c config.Config) {
				logger.SetLevel(logger.ParseLevel(c.LogLevel))
			})
			if err != nil {
				logger.Error(gctx, err, "Отслеживание конфига отключено")
			}
			return nil
		})
	}

	return g.Wait()
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TelegramToken == "" {
		return errors.New("не задан TELEGRAM_TOKEN")
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	b, err := bot.New(cfg.TelegramToken, manager.NewStudentManager(store), manager.NewTaskManager(store))
	if err != nil {
		return err
	}
	return b.Run(ctx)
}
