package services

import "errors"

// Service errors
var (
	// Auth errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAuthDisabled       = errors.New("no users configured")

	// Batch errors
	ErrEmptyBatch = errors.New("uploaded file has no data rows")
	ErrNoUpload   = errors.New("no file uploaded")
)
