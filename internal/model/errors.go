package model

import "errors"

var (
	// ErrNoModel is returned when no model has been loaded
	ErrNoModel = errors.New("no model loaded")

	// ErrShapeMismatch is returned when a vector or matrix does not fit the model
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrNotFitted is returned by a predictor used before Fit
	ErrNotFitted = errors.New("predictor not fitted")

	// ErrNoSamples is returned when training data is empty
	ErrNoSamples = errors.New("no training samples")

	// ErrMissingValues is returned when training frames still contain missing cells
	ErrMissingValues = errors.New("training data has missing values")

	// ErrUnknownKind is returned when an artifact names an unregistered predictor kind
	ErrUnknownKind = errors.New("unknown predictor kind")

	// ErrFormatVersion is returned for artifacts written by an incompatible version
	ErrFormatVersion = errors.New("unsupported artifact format version")
)
