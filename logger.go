package searchstore

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/searchstore/docstore"
)

// Logger wraps slog.Logger with searchstore-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithLid adds a local document id field to the logger.
func (l *Logger) WithLid(lid docstore.Lid) *Logger {
	return &Logger{
		Logger: l.Logger.With("lid", lid),
	}
}

// LogWrite logs a document write operation.
func (l *Logger) LogWrite(ctx context.Context, lid docstore.Lid, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"lid", lid,
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "write completed",
			"lid", lid,
			"size", size,
		)
	}
}

// LogRead logs a document read operation.
func (l *Logger) LogRead(ctx context.Context, lid docstore.Lid, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"lid", lid,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read completed",
			"lid", lid,
			"size", size,
		)
	}
}

// LogCommit logs an interval store commit.
func (l *Logger) LogCommit(ctx context.Context, generation uint64) {
	l.DebugContext(ctx, "commit completed",
		"generation", generation,
	)
}
