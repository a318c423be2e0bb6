// Package config provides centralized configuration management for PredictFlow.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// The file is taken from PREDICTFLOW_CONFIG, or the first of config.yaml and
// configs/config.yaml that exists.
//
// # Environment Variables
//
// Variables follow the pattern PREDICTFLOW_<SECTION>_<KEY>:
//
//	PREDICTFLOW_SERVER_PORT=8000
//	PREDICTFLOW_AUTH_JWT_SECRET=change-me
//	PREDICTFLOW_AUTH_USERS=admin:$2a$10$...
//	PREDICTFLOW_PATHS_MODEL_FILE=models/model.json
//	PREDICTFLOW_MODEL_WATCH=true
//
// # Paths
//
// Relative paths are resolved against paths.base_dir (the working directory
// by default, or the executable's directory when set to "exe"):
//
//	paths, err := cfg.ResolvePaths()
//	store := model.NewFileStore(paths.ModelFile)
//
// # Testing
//
// Default returns a complete configuration that needs no environment.
package config
