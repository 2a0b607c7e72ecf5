// Package slogger is the process-wide logging facade over logging.ApplicationLogger.
package slogger

import (
	"context"
	"strings"
	"sync"

	"textembedder/internal/application/common/logging"
)

// Fields is an alias for logging.Fields for convenience.
type Fields = logging.Fields

var (
	mu     sync.RWMutex              //nolint:gochecknoglobals // Guards the singleton logger.
	global logging.ApplicationLogger //nolint:gochecknoglobals // Singleton logging infrastructure.
)

func getLogger() logging.ApplicationLogger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		logger, err := logging.NewApplicationLogger(logging.Config{Level: "INFO", Format: "json", Output: "stdout"})
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
		global = logger
	}
	return global
}

// SetGlobalLogger replaces the process-wide logger (useful for testing).
func SetGlobalLogger(logger logging.ApplicationLogger) {
	mu.Lock()
	global = logger
	mu.Unlock()
}

// Configure builds a stdout logger from the log.level and log.format settings.
func Configure(level, format string) error {
	if format == "" {
		format = "json"
	}
	logger, err := logging.NewApplicationLogger(logging.Config{
		Level:  strings.ToUpper(level),
		Format: strings.ToLower(format),
		Output: "stdout",
	})
	if err != nil {
		return err
	}
	SetGlobalLogger(logger)
	return nil
}

// Debug logs a debug message with context.
func Debug(ctx context.Context, msg string, fields Fields) {
	getLogger().Debug(ctx, msg, fields)
}

// Info logs an info message with context.
func Info(ctx context.Context, msg string, fields Fields) {
	getLogger().Info(ctx, msg, fields)
}

// Warn logs a warning message with context.
func Warn(ctx context.Context, msg string, fields Fields) {
	getLogger().Warn(ctx, msg, fields)
}

// Error logs an error message with context.
func Error(ctx context.Context, msg string, fields Fields) {
	getLogger().Error(ctx, msg, fields)
}

// ErrorWithError logs an error message with an error object and context.
func ErrorWithError(ctx context.Context, err error, msg string, fields Fields) {
	getLogger().ErrorWithError(ctx, err, msg, fields)
}

// InfoNoCtx logs an info message without context.
func InfoNoCtx(msg string, fields Fields) {
	getLogger().Info(context.Background(), msg, fields)
}

// WarnNoCtx logs a warning message without context.
func WarnNoCtx(msg string, fields Fields) {
	getLogger().Warn(context.Background(), msg, fields)
}

// ErrorNoCtx logs an error message without context.
func ErrorNoCtx(msg string, fields Fields) {
	getLogger().Error(context.Background(), msg, fields)
}

// ErrorWithErrorNoCtx logs an error message with an error object without context.
func ErrorWithErrorNoCtx(err error, msg string, fields Fields) {
	getLogger().ErrorWithError(context.Background(), err, msg, fields)
}

// WithComponent returns a logger with a specific component name.
func WithComponent(component string) logging.ApplicationLogger {
	return getLogger().WithComponent(component)
}
