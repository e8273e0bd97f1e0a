package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	ctx := context.Background()

	t.Run("Info", func(t *testing.T) {
		buf.Reset()
		Info(ctx, "Тестовое сообщение")
		assert.Contains(t, buf.String(), "[INFO]")
		assert.Contains(t, buf.String(), "Тестовое сообщение")
	})

	t.Run("Error with error", func(t *testing.T) {
		buf.Reset()
		Error(ctx, errors.New("тестовая ошибка"), "Дополнительное сообщение")
		assert.Contains(t, buf.String(), "[ERROR]")
		assert.Contains(t, buf.String(), "Дополнительное сообщение: тестовая ошибка")
	})

	t.Run("Error without error", func(t *testing.T) {
		buf.Reset()
		Error(ctx, nil, "Сообщение без ошибки")
		assert.Contains(t, buf.String(), "Сообщение без ошибки")
		assert.NotContains(t, buf.String(), ": <nil>")
	})

	t.Run("Debug with level", func(t *testing.T) {
		buf.Reset()
		SetLevel(LevelDebug)
		defer SetLevel(LevelInfo)

		Debug(ctx, "Тестовое debug-сообщение")
		assert.Contains(t, buf.String(), "[DEBUG]")
		assert.Contains(t, buf.String(), "Тестовое debug-сообщение")
	})

	t.Run("Debug without level", func(t *testing.T) {
		buf.Reset()
		SetLevel(LevelInfo)

		Debug(ctx, "Это не должно логироваться")
		assert.Empty(t, buf.String())
	})
}

func TestLoggerWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))
	defer SetOutput(os.Stderr)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	Info(ctx, "Сообщение с полями", "key1", "value1", "key2", 42)

	entries := logs.FilterMessage("Сообщение с полями").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "value1", fields["key1"])
		assert.EqualValues(t, 42, fields["key2"])
		assert.Equal(t, "req-42", fields["request_id"])
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("whatever"))
}
