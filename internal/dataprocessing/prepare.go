package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"predictflow/pkg/contracts/domain"
)

// Prepare selects the role columns of table, coerces every cell and imputes
// missing values, returning input and output frames of equal row count
func Prepare(table domain.Table, roles domain.ColumnRoleSet, imputer *Imputer) (domain.Frame, domain.Frame, []FillReport, error) {
	x, err := SelectFrame(table, roles.Inputs)
	if err != nil {
		return domain.Frame{}, domain.Frame{}, nil, err
	}
	y, err := SelectFrame(table, roles.Outputs)
	if err != nil {
		return domain.Frame{}, domain.Frame{}, nil, err
	}

	x, xReports := imputer.Impute(x)
	y, yReports := imputer.Impute(y)
	return x, y, append(xReports, yReports...), nil
}

// SelectFrame coerces the named columns of table without imputing them
func SelectFrame(table domain.Table, columns []string) (domain.Frame, error) {
	idx, missing := resolveColumns(table.Headers, columns)
	if len(missing) > 0 {
		return domain.Frame{}, fmt.Errorf("%w: %s", ErrUnknownColumn, strings.Join(missing, ", "))
	}
	frame := domain.Frame{
		Columns: append([]string(nil), columns...),
		Values:  make([][]domain.Number, len(columns)),
	}
	for i, col := range idx {
		frame.Values[i] = CoerceAll(table.ColumnCells(col))
	}
	return frame, nil
}

// ParseSelection resolves a comma separated list of column names or zero-based
// indices against headers. Names match exactly first, then ignoring case.
// Unknown tokens are skipped and duplicates collapse.
func ParseSelection(text string, headers []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(h string) {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}

	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if i, err := strconv.Atoi(tok); err == nil {
			if i >= 0 && i < len(headers) {
				add(headers[i])
			}
			continue
		}
		if h, ok := findHeader(tok, headers); ok {
			add(h)
		}
	}
	return out
}

func findHeader(name string, headers []string) (string, bool) {
	for _, h := range headers {
		if h == name {
			return h, true
		}
	}
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return h, true
		}
	}
	return "", false
}

// ColumnKind is a coarse column type used in summaries
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
	KindEmpty   ColumnKind = "empty"
)

// ColumnSummary describes one column of a table
type ColumnSummary struct {
	Name    string     `json:"name"`
	Index   int        `json:"index"`
	Kind    ColumnKind `json:"kind"`
	Missing int        `json:"missing"`
}

// Summarize describes every column of table
func Summarize(table domain.Table) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(table.Headers))
	for i, h := range table.Headers {
		cells := table.ColumnCells(i)
		s := ColumnSummary{Name: h, Index: i, Kind: KindText}
		for _, c := range cells {
			if c.IsBlank() {
				s.Missing++
			}
		}
		switch {
		case s.Missing == len(cells):
			s.Kind = KindEmpty
		case IsNumericColumn(cells):
			s.Kind = KindNumeric
		}
		out = append(out, s)
	}
	return out
}

// MinCorrelationRows is the fewest rows Correlations accepts
const MinCorrelationRows = 3

// Correlations returns the Pearson coefficient of every input/output pair over
// rows where both values are present. Undefined coefficients are omitted.
func Correlations(x, y domain.Frame) (map[string]map[string]float64, error) {
	if x.Rows() < MinCorrelationRows {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrTooFewRows, MinCorrelationRows, x.Rows())
	}
	out := make(map[string]map[string]float64, len(x.Columns))
	for i, in := range x.Columns {
		out[in] = make(map[string]float64, len(y.Columns))
		for j, o := range y.Columns {
			if r, ok := pearson(x.Values[i], y.Values[j]); ok {
				out[in][o] = r
			}
		}
	}
	return out, nil
}

func pearson(a, b []domain.Number) (float64, bool) {
	var xs, ys []float64
	for k := 0; k < len(a) && k < len(b); k++ {
		if a[k].Valid && b[k].Valid {
			xs = append(xs, a[k].Value)
			ys = append(ys, b[k].Value)
		}
	}
	if len(xs) < 2 {
		return 0, false
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return 0, false
	}
	r := stat.Correlation(xs, ys, nil)
	return r, !math.IsNaN(r)
}
