package services

import (
	"context"
	"log/slog"

	"predictflow/internal/infrastructure"
)

// logServiceError logs a failed service operation. A nil logger falls back to
// the global logger carrying the request's trace id.
func logServiceError(ctx context.Context, logger *slog.Logger, action, message string, attrs ...slog.Attr) {
	if logger == nil {
		logger = infrastructure.LoggerWithContext(ctx)
	}

	allAttrs := []slog.Attr{slog.String("action", action)}
	allAttrs = append(allAttrs, attrs...)

	logger.LogAttrs(ctx, slog.LevelError, message, allAttrs...)
}
