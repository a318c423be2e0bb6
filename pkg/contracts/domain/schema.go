package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyInputs is returned when a schema or role set has no input columns
	ErrEmptyInputs = errors.New("no input columns")
	// ErrEmptyOutputs is returned when a schema or role set has no output columns
	ErrEmptyOutputs = errors.New("no output columns")
)

// ColumnRoleSet is a candidate split of a table's headers into model inputs and outputs
type ColumnRoleSet struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// Valid reports whether both sides are non-empty
func (s ColumnRoleSet) Valid() bool {
	return len(s.Inputs) > 0 && len(s.Outputs) > 0
}

// ModelSchema is the input/output contract persisted with a trained predictor.
// It is never mutated after training.
type ModelSchema struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// Validate checks that both sides are non-empty and disjoint
func (s ModelSchema) Validate() error {
	if len(s.Inputs) == 0 {
		return ErrEmptyInputs
	}
	if len(s.Outputs) == 0 {
		return ErrEmptyOutputs
	}
	seen := make(map[string]bool, len(s.Inputs))
	for _, in := range s.Inputs {
		seen[in] = true
	}
	for _, out := range s.Outputs {
		if seen[out] {
			return fmt.Errorf("column %q is both input and output", out)
		}
	}
	return nil
}

// Clone returns a deep copy
func (s ModelSchema) Clone() ModelSchema {
	return ModelSchema{
		Inputs:  append([]string(nil), s.Inputs...),
		Outputs: append([]string(nil), s.Outputs...),
	}
}

// FeatureVector is ordered like ModelSchema.Inputs
type FeatureVector []float64

// Number is a float that may be missing
type Number struct {
	Value float64
	Valid bool
}

// Some returns a present number. Non-finite values are reported missing.
func Some(f float64) Number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}
	}
	return Number{Value: f, Valid: true}
}

// Missing returns the missing marker
func Missing() Number { return Number{} }

// Frame is a column-major numeric table
type Frame struct {
	Columns []string
	Values  [][]Number // Values[col][row]
}

// Rows returns the row count
func (f Frame) Rows() int {
	if len(f.Values) == 0 {
		return 0
	}
	return len(f.Values[0])
}

// HasMissing reports whether any cell is missing
func (f Frame) HasMissing() bool {
	for _, col := range f.Values {
		for _, v := range col {
			if !v.Valid {
				return true
			}
		}
	}
	return false
}

// Matrix returns the frame as row-major floats; missing cells become NaN
func (f Frame) Matrix() [][]float64 {
	n := f.Rows()
	out := make([][]float64, n)
	for r := 0; r < n; r++ {
		row := make([]float64, len(f.Values))
		for c := range f.Values {
			v := f.Values[c][r]
			if v.Valid {
				row[c] = v.Value
			} else {
				row[c] = math.NaN()
			}
		}
		out[r] = row
	}
	return out
}
