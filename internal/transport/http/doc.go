// Package http implements the HTTP handlers of the PredictFlow API. Handlers
// only deal with HTTP concerns: decoding and validating requests, calling a
// service, rendering JSON and passing every error to errors.ErrorHandler,
// which writes an RFC 7807 problem response.
//
// # Endpoints
//
//	POST /api/login          AuthHandler.Login
//	POST /api/predict        PredictHandler.Predict        (Bearer)
//	POST /api/predict/batch  PredictHandler.PredictBatch   (Bearer, multipart "file")
//	GET  /api/model-info     PredictHandler.ModelInfo      (Bearer)
//	GET  /api/health         HealthHandler.HealthCheck
//	GET  /api/health/live    HealthHandler.LivenessCheck
//	GET  /api/health/ready   HealthHandler.ReadinessCheck
//	GET  /api/version        HealthHandler.Version
//	GET  /metrics            MetricsHandler.GetMetrics
//
// Handlers depend on the service interfaces in service_interfaces.go so they
// can be tested with mocks.
package http
