package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"predictflow/internal/infrastructure"
	"predictflow/internal/model"
	"predictflow/pkg/contracts"
	api "predictflow/pkg/contracts/api/v1"
)

// Health statuses
const (
	StatusOK       = "ok"
	StatusAlive    = "alive"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	holder    *model.Holder
	modelPath string
	startTime time.Time
	logger    *slog.Logger
}

// ReadinessStatus is the readiness check body
type ReadinessStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Services  map[string]ServiceHealth `json:"services"`
}

// ServiceHealth represents individual component health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// LivenessStatus is the liveness check body
type LivenessStatus struct {
	Status    string                      `json:"status"`
	Timestamp time.Time                   `json:"timestamp"`
	Version   string                      `json:"version"`
	Runtime   infrastructure.RuntimeStats `json:"runtime"`
}

// NewHealthService creates a new health service. modelPath is only reported.
func NewHealthService(holder *model.Holder, modelPath string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "health_service"))

	logger.Debug("HealthService initialized",
		slog.String("version", contracts.Version),
		slog.String("model_path", modelPath))

	return &HealthService{
		version:   contracts.Version,
		holder:    holder,
		modelPath: modelPath,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status. The service is healthy whether
// or not a model is loaded.
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	status := api.HealthResponse{
		Status:      StatusOK,
		ModelLoaded: hs.holder.Loaded(),
		Version:     hs.version,
		Timestamp:   time.Now(),
		Uptime:      time.Since(hs.startTime).Round(time.Second).String(),
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.Bool("model_loaded", status.ModelLoaded))

	return status
}

// ReadinessCheck reports ready only when a model is published
func (hs *HealthService) ReadinessCheck(ctx context.Context) ReadinessStatus {
	status := ReadinessStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"model": hs.checkModelHealth(),
		},
	}

	for _, sh := range status.Services {
		if sh.Status != StatusReady {
			status.Status = StatusNotReady
			break
		}
	}

	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) LivenessStatus {
	return LivenessStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   infrastructure.CollectRuntimeStats(hs.startTime),
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":         info.Version,
		"stage":           info.Stage,
		"api_version":     info.APIVersion,
		"artifact_format": info.Artifact,
		"build_time":      info.BuildTime,
		"git_commit":      info.GitCommit,
		"go_version":      runtime.Version(),
		"os":              runtime.GOOS,
		"arch":            runtime.GOARCH,
		"uptime":          time.Since(hs.startTime).Seconds(),
		"start_time":      hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkModelHealth() ServiceHealth {
	m := hs.holder.Current()
	if m == nil {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: "no model loaded from " + hs.modelPath,
		}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: m.Kind() + " model trained " + m.TrainedAt().Format(time.RFC3339),
	}
}
