package dataprocessing

import (
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"predictflow/pkg/contracts/domain"
)

// ImputePolicy selects how a column's fill value is computed
type ImputePolicy int

const (
	// PolicyMedian fills with the column median, or the fallback when no value is present
	PolicyMedian ImputePolicy = iota
	// PolicyZero fills with the fallback constant
	PolicyZero
	// PolicyMean fills with the column mean, or the fallback when no value is present
	PolicyMean
)

// ParseImputePolicy maps a configuration name to a policy
func ParseImputePolicy(name string) (ImputePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "median":
		return PolicyMedian, nil
	case "mean":
		return PolicyMean, nil
	case "zero":
		return PolicyZero, nil
	}
	return PolicyMedian, fmt.Errorf("unknown impute policy %q (want median, mean or zero)", name)
}

// String returns the configuration name of the policy
func (p ImputePolicy) String() string {
	switch p {
	case PolicyMean:
		return "mean"
	case PolicyZero:
		return "zero"
	}
	return "median"
}

// FillReport describes one column that had missing values
type FillReport struct {
	Column string  `json:"column"`
	Value  float64 `json:"value"`
	Filled int     `json:"filled"`
}

// Imputer replaces missing numeric cells column by column
type Imputer struct {
	Policy   ImputePolicy
	Fallback float64
}

// NewImputer creates an imputer with a fallback of 0
func NewImputer(policy ImputePolicy) *Imputer {
	return &Imputer{Policy: policy}
}

// Impute returns a copy of frame with every missing cell filled. The input is
// not modified. A frame without missing cells comes back unchanged.
func (m *Imputer) Impute(frame domain.Frame) (domain.Frame, []FillReport) {
	out := domain.Frame{
		Columns: append([]string(nil), frame.Columns...),
		Values:  make([][]domain.Number, len(frame.Values)),
	}

	var reports []FillReport
	for c, col := range frame.Values {
		fill := m.fillValue(col)
		filled := make([]domain.Number, len(col))
		n := 0
		for r, v := range col {
			if v.Valid {
				filled[r] = v
				continue
			}
			filled[r] = domain.Number{Value: fill, Valid: true}
			n++
		}
		out.Values[c] = filled

		if n > 0 {
			name := ""
			if c < len(frame.Columns) {
				name = frame.Columns[c]
			}
			reports = append(reports, FillReport{Column: name, Value: fill, Filled: n})
		}
	}
	return out, reports
}

// ImputeVector fills a single row using the fallback constant
func (m *Imputer) ImputeVector(values []domain.Number) domain.FeatureVector {
	out := make(domain.FeatureVector, len(values))
	for i, v := range values {
		if v.Valid {
			out[i] = v.Value
		} else {
			out[i] = m.Fallback
		}
	}
	return out
}

func (m *Imputer) fillValue(col []domain.Number) float64 {
	if m.Policy == PolicyZero {
		return m.Fallback
	}
	present := make([]float64, 0, len(col))
	for _, v := range col {
		if v.Valid {
			present = append(present, v.Value)
		}
	}
	if len(present) == 0 {
		return m.Fallback
	}
	if m.Policy == PolicyMean {
		return stat.Mean(present, nil)
	}
	med, _ := Median(present)
	return med
}

// Median returns the median of values; ok is false for an empty slice. An
// even count averages the two middle values.
func Median(values []float64) (float64, bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil), true
}
