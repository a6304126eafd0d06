package logger

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

var current atomic.Pointer[slog.Logger]

// Init инициализирует глобальный логгер.
// env: "development" - текст и debug, иначе JSON и info.
func Init(env string) {
	InitWithWriter(env, os.Stdout)
}

// InitWithWriter - то же, что Init, но с произвольным выводом (тесты)
func InitWithWriter(env string, w io.Writer) {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}

	var handler slog.Handler
	switch env {
	case "development", "test":
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(handler).With("service", "volunteer_backend")
	current.Store(l)
	slog.SetDefault(l)
}

func GetLogger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init("development")
	return current.Load()
}

// ============================================
// Convenience функции
// ============================================

func Debug(msg string, args ...any) { GetLogger().Debug(msg, args...) }
func Info(msg string, args ...any)  { GetLogger().Info(msg, args...) }
func Warn(msg string, args ...any)  { GetLogger().Warn(msg, args...) }
func Error(msg string, args ...any) { GetLogger().Error(msg, args...) }

// Fatal логирует и завершает процесс
func Fatal(msg string, args ...any) {
	GetLogger().Error(msg, args...)
	os.Exit(1)
}

func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}

// ============================================
// Специализированные логгеры
// ============================================

func HTTPLog(method, path string, status int, duration time.Duration, size int) {
	GetLogger().Info("http request",
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"size_bytes", size,
	)
}

// DBLog - операции хранилища, ошибки на уровне error
func DBLog(operation, table string, duration time.Duration, err error) {
	fields := []any{
		"operation", operation,
		"table", table,
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		GetLogger().Error("database operation failed", append(fields, "error", err.Error())...)
		return
	}
	GetLogger().Debug("database operation", fields...)
}

func WorkerLog(worker, operation string, err error) {
	fields := []any{
		"worker", worker,
		"operation", operation,
	}
	if err != nil {
		GetLogger().Error("worker operation failed", append(fields, "error", err.Error())...)
		return
	}
	GetLogger().Info("worker operation completed", fields...)
}
