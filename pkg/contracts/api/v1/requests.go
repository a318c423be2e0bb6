// Package api contains the HTTP API contract for PredictFlow.
// Version v1 represents the current stable API version.
package api

// LoginRequest carries user credentials
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// PredictRequest carries the two named quantities a single prediction needs
type PredictRequest struct {
	Load      *float64 `json:"load" validate:"required"`
	Frequency *float64 `json:"frequency" validate:"required"`
}
