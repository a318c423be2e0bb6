package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ContextWithTraceID returns ctx carrying a fresh trace ID
func ContextWithTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, uuid.NewString())
}

// EnsureTraceID keeps an existing trace ID and adds one otherwise. CLI runs
// use it so that every log line of one invocation shares an ID.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return ContextWithTraceID(ctx)
}

// LoggerWithContext returns the global logger tagged with the trace ID of ctx
func LoggerWithContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if traceID := GetTraceID(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}
	return logger
}

// WithComponent tags logger with the emitting component
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// WithError tags logger with err; a nil err returns logger unchanged
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With(slog.String("error", err.Error()))
}

// WithFields tags logger with every entry of fields
func WithFields(logger *slog.Logger, fields map[string]any) *slog.Logger {
	attrs := make([]any, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return logger.With(attrs...)
}
