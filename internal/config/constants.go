package config

import "time"

// Application constants
const (
	// Application Info
	AppName = "PredictFlow"

	// EnvPrefix namespaces environment variables, e.g. PREDICTFLOW_SERVER_PORT
	EnvPrefix = "PREDICTFLOW"

	// File Paths (relative to the base directory)
	DefaultModelFile = "models/model.json"
	DefaultDataDir   = "data"
	DefaultLogsDir   = "logs"
	DefaultLogFile   = "logs/predictflow.log"

	// Security Constants
	DefaultTokenTTL = 24 * time.Hour

	// Rate Limiting
	DefaultRateLimitRPS   = 50
	DefaultRateLimitBurst = 100

	// Network Timeouts
	DefaultRequestTimeout = 60 * time.Second

	// Uploads
	DefaultMaxUploadBytes = 32 << 20 // 32MB

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// API endpoints
const (
	APIBasePath         = "/api"
	LoginEndpoint       = "/api/login"
	PredictEndpoint     = "/api/predict"
	BatchEndpoint       = "/api/predict/batch"
	ModelInfoEndpoint   = "/api/model-info"
	HealthEndpoint      = "/api/health"
	VersionEndpoint     = "/api/version"
	MetricsEndpoint     = "/metrics"
	BatchUploadFormName = "file"
)
