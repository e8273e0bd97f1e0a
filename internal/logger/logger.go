package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelError = zapcore.ErrorLevel
)

var (
	level = zap.NewAtomicLevelAt(LevelInfo)
	base  atomic.Pointer[zap.Logger]
)

func init() {
	SetOutput(os.Stderr)
}

func newLogger(ws zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + l.CapitalString() + "]")
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, level)
	return zap.New(core)
}

// SetOutput перенаправляет вывод (используется в тестах)
func SetOutput(w io.Writer) {
	base.Store(newLogger(zapcore.Lock(zapcore.AddSync(w))))
}

// Use подменяет логгер целиком, например на zaptest/observer
func Use(l *zap.Logger) {
	base.Store(l)
}

func SetLevel(l Level) {
	level.SetLevel(l)
}

// ParseLevel понимает debug|info|error, всё остальное - info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// L возвращает текущий zap-логгер для middleware и сторонних библиотек
func L() *zap.Logger {
	return base.Load()
}

func from(ctx context.Context) *zap.SugaredLogger {
	l := base.Load()
	if ctx != nil {
		if id := middleware.GetReqID(ctx); id != "" {
			l = l.With(zap.String("request_id", id))
		}
	}
	return l.Sugar()
}

func Info(ctx context.Context, msg string, keysAndValues ...interface{}) {
	from(ctx).Infow(msg, keysAndValues...)
}

func Debug(ctx context.Context, msg string, keysAndValues ...interface{}) {
	from(ctx).Debugw(msg, keysAndValues...)
}

// Error пишет "msg: err"; при err == nil только сообщение
func Error(ctx context.Context, err error, msg string, keysAndValues ...interface{}) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	from(ctx).Errorw(msg, keysAndValues...)
}

func Sync() {
	_ = base.Load().Sync()
}
