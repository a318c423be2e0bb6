package dataprocessing

import (
	"sort"

	"predictflow/pkg/contracts/domain"
)

// Quantities are the two named values a single prediction request carries
type Quantities struct {
	Load      float64
	Frequency float64
}

// Resolution records how an expected input column received its value
type Resolution string

const (
	ResolvedByKeyword  Resolution = "keyword"
	ResolvedByPosition Resolution = "positional"
	ResolvedByDefault  Resolution = "default"
)

// AlignResult is a request-path feature vector plus how each slot was filled
type AlignResult struct {
	Vector      domain.FeatureVector
	Resolutions []Resolution
}

// Fallbacks counts slots that were not resolved by keyword
func (r AlignResult) Fallbacks() int {
	n := 0
	for _, res := range r.Resolutions {
		if res != ResolvedByKeyword {
			n++
		}
	}
	return n
}

// FeatureAligner maps incoming values onto a model's expected input columns
type FeatureAligner struct {
	vocab   Vocabulary
	imputer *Imputer
}

// NewFeatureAligner creates an aligner whose keyword phase uses vocab
func NewFeatureAligner(vocab Vocabulary) *FeatureAligner {
	return &FeatureAligner{vocab: vocab, imputer: NewImputer(PolicyZero)}
}

// slot is the quantity assigned to one expected column
type slot struct {
	quantity Role
	how      Resolution
}

// AlignRequest distributes load and frequency over expected. Columns naming a
// load or frequency keyword get that value. The remaining columns are then
// filled in order: the first with load, the second with frequency, the rest
// with 0, even when a keyword column already received the same quantity.
// It never fails.
func (a *FeatureAligner) AlignRequest(q Quantities, expected []string) AlignResult {
	slots := fillPositional(a.resolveKeywords(expected))

	res := AlignResult{
		Vector:      make(domain.FeatureVector, len(slots)),
		Resolutions: make([]Resolution, len(slots)),
	}
	for i, s := range slots {
		switch s.quantity {
		case RoleLoad:
			res.Vector[i] = q.Load
		case RoleFrequency:
			res.Vector[i] = q.Frequency
		}
		res.Resolutions[i] = s.how
	}
	return res
}

// resolveKeywords is the first phase: load keywords win over frequency keywords
func (a *FeatureAligner) resolveKeywords(expected []string) []slot {
	slots := make([]slot, len(expected))
	for i, col := range expected {
		if _, ok := a.vocab.Match(col, isRole(RoleLoad)); ok {
			slots[i] = slot{quantity: RoleLoad, how: ResolvedByKeyword}
		} else if _, ok := a.vocab.Match(col, isRole(RoleFrequency)); ok {
			slots[i] = slot{quantity: RoleFrequency, how: ResolvedByKeyword}
		}
	}
	return slots
}

// fillPositional is the second phase and touches unresolved slots only
func fillPositional(slots []slot) []slot {
	order := []Role{RoleLoad, RoleFrequency}

	out := make([]slot, len(slots))
	copy(out, slots)
	next := 0
	for i := range out {
		if out[i].how != "" {
			continue
		}
		if next < len(order) {
			out[i] = slot{quantity: order[next], how: ResolvedByPosition}
			next++
			continue
		}
		out[i] = slot{quantity: RoleNone, how: ResolvedByDefault}
	}
	return out
}

// AlignRow builds the feature vector for one batch row. Every expected column
// must be present, by exact or case-insensitive name; otherwise a
// *MissingColumnsError is returned and no vector. Unparseable values become 0.
func (a *FeatureAligner) AlignRow(row map[string]domain.Cell, expected []string) (domain.FeatureVector, error) {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx, missing := resolveColumns(keys, expected)
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	values := make([]domain.Number, len(expected))
	for i, k := range idx {
		values[i] = Coerce(row[keys[k]])
	}
	return a.imputer.ImputeVector(values), nil
}

// AlignTable aligns every row of a batch table. A missing column rejects the
// whole batch before any row is read.
func (a *FeatureAligner) AlignTable(table domain.Table, expected []string) ([]domain.FeatureVector, error) {
	if _, missing := resolveColumns(table.Headers, expected); len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	vectors := make([]domain.FeatureVector, 0, len(table.Rows))
	for i := range table.Rows {
		v, err := a.AlignRow(table.RowMap(i), expected)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

// resolveColumns maps each expected name to an index into available, trying
// an exact match and then a trimmed case-insensitive one
func resolveColumns(available, expected []string) ([]int, []string) {
	exact := make(map[string]int, len(available))
	folded := make(map[string]int, len(available))
	for i, name := range available {
		if _, ok := exact[name]; !ok {
			exact[name] = i
		}
		if _, ok := folded[fold(name)]; !ok {
			folded[fold(name)] = i
		}
	}

	idx := make([]int, len(expected))
	var missing []string
	for i, want := range expected {
		if j, ok := exact[want]; ok {
			idx[i] = j
			continue
		}
		if j, ok := folded[fold(want)]; ok {
			idx[i] = j
			continue
		}
		missing = append(missing, want)
	}
	return idx, missing
}
