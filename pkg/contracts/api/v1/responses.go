package api

import "time"

// LoginResponse is returned by POST /api/login
type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token,omitempty"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// PredictInput echoes the quantities used for a prediction
type PredictInput struct {
	Load      float64 `json:"load"`
	Frequency float64 `json:"frequency"`
}

// PredictResponse maps every model output to its predicted value
type PredictResponse struct {
	Predictions map[string]float64 `json:"predictions"`
	InputData   PredictInput       `json:"input_data"`
}

// BatchRow is one predicted row of an uploaded file
type BatchRow struct {
	Inputs      map[string]float64 `json:"inputs"`
	Predictions map[string]float64 `json:"predictions"`
}

// BatchPredictResponse is returned by POST /api/predict/batch
type BatchPredictResponse struct {
	Rows  []BatchRow `json:"rows"`
	Count int        `json:"count"`
}

// ModelInfoResponse describes the loaded model
type ModelInfoResponse struct {
	Inputs    []string                      `json:"inputs"`
	Outputs   []string                      `json:"outputs"`
	Kind      string                        `json:"kind"`
	TrainedAt time.Time                     `json:"trained_at"`
	Metrics   map[string]OutputMetricsValue `json:"metrics,omitempty"`
}

// OutputMetricsValue holds held-out scores for one output
type OutputMetricsValue struct {
	R2  float64 `json:"r2"`
	MAE float64 `json:"mae"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status      string    `json:"status"`
	ModelLoaded bool      `json:"model_loaded"`
	Version     string    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      string    `json:"uptime,omitempty"`
}
