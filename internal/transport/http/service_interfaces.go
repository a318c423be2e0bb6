package http

import (
	"context"
	"io"

	"predictflow/internal/services"
	api "predictflow/pkg/contracts/api/v1"
)

// AuthServiceInterface defines the login operation used by AuthHandler
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*services.IssuedToken, error)
}

// PredictionServiceInterface defines the prediction operations used by
// PredictHandler
type PredictionServiceInterface interface {
	Predict(ctx context.Context, load, frequency float64) (*api.PredictResponse, error)
	PredictBatch(ctx context.Context, r io.Reader, filename string) (*api.BatchPredictResponse, error)
	ModelInfo(ctx context.Context) (*api.ModelInfoResponse, error)
}

// HealthServiceInterface defines the checks used by HealthHandler
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) api.HealthResponse
	ReadinessCheck(ctx context.Context) services.ReadinessStatus
	LivenessCheck(ctx context.Context) services.LivenessStatus
	Version() map[string]interface{}
}
