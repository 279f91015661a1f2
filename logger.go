/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitykv

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with entitykv field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler logs text
// to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// WithStore tags records with a store name.
func (l *Logger) WithStore(name string) *Logger {
	return &Logger{Logger: l.Logger.With("store", name)}
}

// WithBackend tags records with the storage backend.
func (l *Logger) WithBackend(name string) *Logger {
	return &Logger{Logger: l.Logger.With("backend", name)}
}
