// Package logger provides the slog setup shared by the hexcat commands.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type contextKey struct{}

// New builds a logger writing human-oriented output to w. Diagnostics
// go to stderr by convention so converted images can go to stdout.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(newPrettyHandler(w, level))
}

// Default returns an info-level logger on stderr.
func Default() *slog.Logger {
	return New(os.Stderr, slog.LevelInfo)
}

// JSON builds a structured logger for the HTTP service.
func JSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithContext stores the logger in the context for the command tree.
func WithContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the logger stored by WithContext, or Default.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return log
	}
	return Default()
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
