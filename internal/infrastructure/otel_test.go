package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictflow/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tracingConfig() *OTelConfig {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "stdout"
	cfg.TraceWriter = io.Discard
	return cfg
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(tracingConfig(), testLogger())
	require.NoError(t, err)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		config  *OTelConfig
		tracing bool
		metrics bool
	}{
		{name: "defaults", config: nil, metrics: true},
		{name: "tracing and metrics", config: tracingConfig(), tracing: true, metrics: true},
		{
			name: "everything disabled",
			config: &OTelConfig{
				ServiceName:    "test",
				TraceExporter:  "none",
				MetricExporter: "none",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, testLogger())
			require.NoError(t, err)
			defer providers.Shutdown(context.Background())

			assert.Equal(t, tt.tracing, providers.TracerProvider != nil)
			assert.Equal(t, tt.metrics, providers.MeterProvider != nil)

			// no-op fallbacks keep callers nil-safe
			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			_, err = CreateBusinessMetrics(providers.Meter)
			assert.NoError(t, err)
		})
	}

	_, err := InitializeOTel(&OTelConfig{EnableTracing: true, TraceExporter: "jaeger"}, testLogger())
	assert.Error(t, err)
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.Default().Telemetry)
	assert.False(t, cfg.EnableTracing)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, "prometheus", cfg.MetricExporter)

	cfg = OTelConfigFrom(config.TelemetryConfig{
		Environment:   "production",
		EnableTracing: true,
		TraceExporter: "stdout",
		SampleRatio:   0.5,
	})
	assert.True(t, cfg.EnableTracing)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, "none", cfg.MetricExporter)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 0.5, cfg.SampleRatio)
}

func TestBusinessMetrics_Exposed(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	require.NoError(t, RegisterRuntimeMetrics(providers.Meter, time.Now()))

	ctx := context.Background()
	RecordPredictionMetrics(ctx, metrics, "batch", 3, 20*time.Millisecond, 2)
	RecordBatchRejection(ctx, metrics, 1)
	RecordLoginAttempt(ctx, metrics, false)
	RecordModelReload(ctx, metrics, errors.New("corrupt artifact"))

	body := scrape(t, providers.PrometheusHTTP)
	for _, name := range []string{
		"predictions_total",
		"prediction_duration_seconds",
		"alignment_fallbacks_total",
		"batch_rejections_total",
		"login_attempts_total",
		"model_reloads_total",
		"system_errors_total",
		"system_goroutines",
	} {
		assert.Contains(t, body, name)
	}
	assert.Contains(t, body, `result="failure"`)
	assert.Contains(t, body, `path="batch"`)
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordPredictionMetrics(ctx, nil, "single", 1, time.Millisecond, 1)
		RecordBatchRejection(ctx, nil, 1)
		RecordLoginAttempt(ctx, nil, true)
		RecordModelReload(ctx, nil, nil)
	})
}

func TestSpanHelpers(t *testing.T) {
	providers, err := InitializeOTel(tracingConfig(), testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "predict")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))

	assert.NotPanics(t, func() {
		SetSpanAttributes(ctx, map[string]interface{}{"rows": 3, "kind": "knn", "ok": true, "cols": []string{"a"}})
		AddSpanEvent(ctx, "aligned", map[string]interface{}{"fallbacks": int64(1), "ratio": 0.5})
		RecordError(ctx, assert.AnError)
	})
	assert.True(t, span.IsRecording())
}

func TestCollectRuntimeStats(t *testing.T) {
	stats := CollectRuntimeStats(time.Now().Add(-time.Second))
	assert.Positive(t, stats.Goroutines)
	assert.Positive(t, stats.CPUCount)
	assert.GreaterOrEqual(t, stats.UptimeSeconds, 1.0)
}
