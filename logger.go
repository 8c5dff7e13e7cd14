package vectordb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vector-db-specific context, matching the
// structured-logging idiom used throughout the core: Debug on success,
// Error on failure, consistent field names across operations.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, a text handler writing to stderr at Info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// WithLibrary adds a library_id field to the logger.
func (l *Logger) WithLibrary(id string) *Logger {
	return &Logger{Logger: l.Logger.With("library_id", id)}
}

// LogMutation logs a mutating use case (create/update/delete) at Debug on
// success and Error on failure.
func (l *Logger) LogMutation(ctx context.Context, op, entity, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed", "entity", entity, "id", id, "error", err)
		return
	}
	l.DebugContext(ctx, op+" completed", "entity", entity, "id", id)
}

// LogConflict logs a CAS conflict (expected but noteworthy).
func (l *Logger) LogConflict(ctx context.Context, entity, id string, attempt int) {
	l.WarnContext(ctx, "version conflict", "entity", entity, "id", id, "attempt", attempt)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, libraryID string, k, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "library_id", libraryID, "k", k, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "library_id", libraryID, "k", k, "results", results)
}

// LogRebuild logs an index rebuild/swap.
func (l *Logger) LogRebuild(ctx context.Context, libraryID string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index rebuild failed", "library_id", libraryID, "error", err)
		return
	}
	l.InfoContext(ctx, "index rebuild completed", "library_id", libraryID, "size", size)
}
