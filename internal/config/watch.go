package config

import (
	"context"
	"fmt"
	"path/filepath"

	"student-tracker/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watch перечитывает YAML-файл при его изменении и передаёт новый конфиг в onChange.
// Следит за директорией, а не за файлом: редакторы сохраняют через rename.
// Блокируется до отмены ctx.
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ошибка создания watcher: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("ошибка подписки на %s: %w", target, err)
	}
	logger.Debug(ctx, "Отслеживание конфига", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(target)
			if err != nil {
				// старый конфиг остаётся в силе
				logger.Error(ctx, err, "Ошибка перечитывания конфига")
				continue
			}
			logger.Info(ctx, "Конфиг перечитан", "path", target)
			onChange(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error(ctx, err, "Ошибка watcher")
		}
	}
}
