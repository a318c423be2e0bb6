package dataprocessing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotApplicable is returned by BlockExtractor when a sheet holds no blocks.
	// It is a negative result rather than a failure.
	ErrNotApplicable = errors.New("no block-structured content")

	// ErrMissingColumns is wrapped by MissingColumnsError
	ErrMissingColumns = errors.New("missing required columns")

	// ErrEmptyCandidateSet is returned when a role set has no inputs or no outputs
	ErrEmptyCandidateSet = errors.New("empty candidate column set")

	// ErrUnknownColumn is returned when a selected column is not in the table
	ErrUnknownColumn = errors.New("unknown column")

	// ErrTooFewRows is returned when a statistic needs more complete rows
	ErrTooFewRows = errors.New("too few complete rows")
)

// MissingColumnsError lists the schema columns a batch source cannot supply
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Unwrap() error {
	return ErrMissingColumns
}
