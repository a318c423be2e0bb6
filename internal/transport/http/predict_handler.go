package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"predictflow/internal/config"
	apierrors "predictflow/internal/errors"
	"predictflow/internal/middleware"
	api "predictflow/pkg/contracts/api/v1"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory
const multipartMemory = 8 << 20

// PredictHandler handles single and batch prediction and model description
type PredictHandler struct {
	service        PredictionServiceInterface
	validation     *middleware.ValidationMiddleware
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewPredictHandler creates a new prediction handler. maxUploadBytes bounds
// batch uploads.
func NewPredictHandler(service PredictionServiceInterface, validation *middleware.ValidationMiddleware, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PredictHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = config.DefaultMaxUploadBytes
	}
	return &PredictHandler{
		service:        service,
		validation:     validation,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "predict")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the prediction routes, mounted at /api/predict
func (h *PredictHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.validation.ValidateRequest).Post("/", h.Predict)
	r.With(middleware.ContentTypeValidator("multipart/form-data")).Post("/batch", h.PredictBatch)

	return r
}

// Predict handles POST /api/predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req api.PredictRequest
	if err := h.validation.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Predict(r.Context(), *req.Load, *req.Frequency)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}

// PredictBatch handles POST /api/predict/batch with a multipart "file" field
// holding a CSV or workbook
func (h *PredictHandler) PredictBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(config.BatchUploadFormName)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(config.BatchUploadFormName, "a csv or xlsx file is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "batch upload received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	resp, err := h.service.PredictBatch(r.Context(), file, header.Filename)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}

// ModelInfo handles GET /api/model-info
func (h *PredictHandler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.ModelInfo(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}
