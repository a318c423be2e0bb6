package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apierrors "predictflow/internal/errors"
)

const userKey ctxKey = "user"

// TokenValidator verifies a bearer token and returns the subject it was issued to
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// UserInfo represents the authenticated caller
type UserInfo struct {
	Name string `json:"name"`
}

// UserFromContext returns the caller stored by AuthMiddleware
func UserFromContext(ctx context.Context) (*UserInfo, bool) {
	user, ok := ctx.Value(userKey).(*UserInfo)
	return user, ok
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header
func AuthMiddleware(logger *slog.Logger, validator TokenValidator) func(next http.Handler) http.Handler {
	errorHandler := apierrors.NewErrorHandler(logger, false)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				errorHandler.HandleError(w, r, apierrors.NewWithDetails(
					http.StatusUnauthorized,
					apierrors.CodeUnauthorized,
					"Invalid authorization format. Use: Bearer <token>",
					nil,
				))
				return
			}

			subject, err := validator.ValidateToken(ctx, strings.TrimSpace(parts[1]))
			if err != nil {
				logger.WarnContext(ctx, "authentication failed",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				errorHandler.HandleError(w, r, apierrors.ErrInvalidToken)
				return
			}

			ctx = context.WithValue(ctx, userKey, &UserInfo{Name: subject})
			logger.DebugContext(ctx, "authentication successful",
				"user_name", subject,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuditLog records who called a protected endpoint and the outcome
func AuditLog(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			ww := &auditResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			var userName string
			if user, ok := UserFromContext(ctx); ok {
				userName = user.Name
			}

			next.ServeHTTP(ww, r)

			logger.InfoContext(ctx, "audit log",
				"event_type", "api_access",
				"user_name", userName,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"remote_addr", r.RemoteAddr,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// auditResponseWriter captures the response status code
type auditResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (w *auditResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *auditResponseWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}
