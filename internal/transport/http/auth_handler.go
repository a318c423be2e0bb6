package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "predictflow/internal/errors"
	"predictflow/internal/middleware"
	"predictflow/internal/services"
	api "predictflow/pkg/contracts/api/v1"
)

// AuthHandler handles login requests
type AuthHandler struct {
	service      AuthServiceInterface
	validation   *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service AuthServiceInterface, validation *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AuthHandler {
	return &AuthHandler{
		service:      service,
		validation:   validation,
		logger:       logger.With(slog.String("handler", "auth")),
		errorHandler: errorHandler,
	}
}

// Routes returns the auth routes
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.validation.ValidateRequest)
	r.Post("/", h.Login)
	return r
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := h.validation.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	issued, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			h.errorHandler.HandleError(w, r, apierrors.ErrInvalidCredentials)
		case errors.Is(err, services.ErrAuthDisabled):
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusServiceUnavailable,
				apierrors.CodeServiceUnavailable,
				"Login is disabled: no users are configured",
			))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	render.JSON(w, r, api.LoginResponse{
		Success:   true,
		Token:     issued.Token,
		Message:   "Login successful",
		ExpiresAt: issued.ExpiresAt,
	})
}
