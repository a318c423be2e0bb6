// Package services implements the business logic behind the HTTP API.
// Handlers decode and validate requests; services do the work and return
// response DTOs or errors that the HTTP layer maps to problem responses.
//
// # Available Services
//
//	- AuthService: bcrypt password checks against the configured users and
//	  HS256 JWT issuance/validation. It satisfies middleware.TokenValidator.
//	- PredictionService: single and batch prediction plus model description,
//	  always against the model currently published in a model.Holder.
//	- HealthService: health, liveness and readiness checks and version info.
//
// # Error Handling
//
// Services return sentinel errors (ErrInvalidCredentials, ErrInvalidToken),
// domain errors passed through unchanged (model.ErrNoModel,
// *dataprocessing.MissingColumnsError, files.ErrUnsupportedFormat) and
// *errors.AppError for parsing and model failures.
//
// # Hot Reload
//
// A PredictionService never caches the model. Each call loads the holder's
// pointer once, so a reload between two calls is picked up by the second
// and never changes the schema under a running call.
package services
