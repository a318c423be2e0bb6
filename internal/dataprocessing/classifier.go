package dataprocessing

import (
	"fmt"

	"predictflow/pkg/contracts/domain"
)

// ColumnReport explains how one header was classified
type ColumnReport struct {
	Name    string `json:"name"`
	Index   int    `json:"index"`
	Role    Role   `json:"role"`
	Keyword string `json:"keyword,omitempty"`
	Numeric bool   `json:"numeric"`
	// OutputHint is set when a candidate output also names an output quantity
	OutputHint bool `json:"output_hint"`
}

// ColumnClassifier proposes model inputs and outputs from table headers
type ColumnClassifier struct {
	vocab Vocabulary
}

// NewColumnClassifier creates a classifier over vocab
func NewColumnClassifier(vocab Vocabulary) *ColumnClassifier {
	return &ColumnClassifier{vocab: vocab}
}

// Classify puts every header that names an input quantity into Inputs and
// every remaining numeric column into Outputs, both in header order. The
// result may be empty on either side; callers decide whether that is usable.
func (c *ColumnClassifier) Classify(headers []string, numeric map[string]bool) domain.ColumnRoleSet {
	var set domain.ColumnRoleSet
	isInput := make(map[string]bool)

	for _, h := range headers {
		if isInput[h] {
			continue
		}
		if _, ok := c.vocab.Match(h, Role.IsInput); ok {
			isInput[h] = true
			set.Inputs = append(set.Inputs, h)
		}
	}

	seen := make(map[string]bool)
	for _, h := range headers {
		if isInput[h] || seen[h] || !numeric[h] {
			continue
		}
		seen[h] = true
		set.Outputs = append(set.Outputs, h)
	}
	return set
}

// Report classifies headers and returns a per-column explanation
func (c *ColumnClassifier) Report(headers []string, numeric map[string]bool) []ColumnReport {
	set := c.Classify(headers, numeric)
	outputs := make(map[string]bool, len(set.Outputs))
	for _, o := range set.Outputs {
		outputs[o] = true
	}

	reports := make([]ColumnReport, 0, len(headers))
	for i, h := range headers {
		r := ColumnReport{Name: h, Index: i, Numeric: numeric[h]}
		if kw, ok := c.vocab.Match(h, Role.IsInput); ok {
			r.Role = kw.Role
			r.Keyword = kw.Term
		} else if outputs[h] {
			r.Role = RoleOutput
			if kw, ok := c.vocab.Match(h, isRole(RoleOutput)); ok {
				r.Keyword = kw.Term
				r.OutputHint = true
			}
		}
		reports = append(reports, r)
	}
	return reports
}

// NumericColumns returns the headers whose cells all coerce to numbers
func NumericColumns(table domain.Table) map[string]bool {
	out := make(map[string]bool)
	for i, h := range table.Headers {
		if IsNumericColumn(table.ColumnCells(i)) {
			out[h] = true
		}
	}
	return out
}

// RequireRoles rejects a role set that cannot be trained on
func RequireRoles(set domain.ColumnRoleSet) error {
	switch {
	case len(set.Inputs) == 0:
		return fmt.Errorf("%w: no input columns", ErrEmptyCandidateSet)
	case len(set.Outputs) == 0:
		return fmt.Errorf("%w: no output columns", ErrEmptyCandidateSet)
	}
	return nil
}
