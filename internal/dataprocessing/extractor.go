package dataprocessing

import (
	"strings"

	"predictflow/pkg/contracts/domain"
)

// LabelRule maps label keywords found in a block row to a record field
type LabelRule struct {
	Field    string
	Keywords []string
}

// BlockLayout describes where a simulation export places its values.
// A block is a load marker row, a frequency marker row directly below it and
// up to MaxAuxRows auxiliary rows carrying label/value pairs.
type BlockLayout struct {
	LoadLabel      string
	FrequencyLabel string

	ValueColumn       int // load / frequency value next to the marker
	LabelColumn       int // parameter label
	ParamColumn       int // parameter value
	SecondParamColumn int // second strain component
	MaxAuxRows        int

	StressRule LabelRule   // read from the load row
	StrainRule LabelRule   // read from the frequency row, two values
	AuxRules   []LabelRule // read from auxiliary rows, first match wins
}

// DefaultBlockLayout returns the layout of the structural-analysis workbooks
func DefaultBlockLayout() BlockLayout {
	return BlockLayout{
		LoadLabel:         "载荷",
		FrequencyLabel:    "频率",
		ValueColumn:       1,
		LabelColumn:       3,
		ParamColumn:       4,
		SecondParamColumn: 5,
		MaxAuxRows:        4,
		StressRule: LabelRule{
			Field:    domain.FieldStressIntensityMax,
			Keywords: []string{"应力强度最大值", "应力强度", "stress intensity"},
		},
		StrainRule: LabelRule{
			Field:    domain.FieldStrainPrimary,
			Keywords: []string{"定向弹性应变", "应变", "strain"},
		},
		AuxRules: []LabelRule{
			{Field: domain.FieldMembraneStress, Keywords: []string{"线性化薄膜应力", "linearized membrane"}},
			{Field: domain.FieldBendingStress, Keywords: []string{"膜加弯应力", "membrane plus bending", "membrane+bending"}},
		},
	}
}

// BlockExtractor reassembles block-structured sheets into flat records
type BlockExtractor struct {
	layout BlockLayout
}

// NewBlockExtractor creates an extractor for the given layout
func NewBlockExtractor(layout BlockLayout) *BlockExtractor {
	return &BlockExtractor{layout: layout}
}

// Extract scans table for blocks and returns one record per complete block in
// source order. ErrNotApplicable means the sheet is not block-structured and
// should be read as a plain table instead.
func (e *BlockExtractor) Extract(table domain.RawTable) ([]domain.SemanticRecord, error) {
	var records []domain.SemanticRecord

	for i := 0; i < len(table); i++ {
		if !e.isMarker(table.At(i, 0), e.layout.LoadLabel) {
			continue
		}
		if i+1 >= len(table) || !e.isMarker(table.At(i+1, 0), e.layout.FrequencyLabel) {
			// not a block; keep scanning from the next row
			continue
		}

		record, complete, next := e.readBlock(table, i)
		if complete {
			records = append(records, record)
		}
		i = next - 1
	}

	if len(records) == 0 {
		return nil, ErrNotApplicable
	}
	return records, nil
}

// readBlock reads the block whose load row is at i. It returns the row index
// after the last row it consumed.
func (e *BlockExtractor) readBlock(table domain.RawTable, i int) (domain.SemanticRecord, bool, int) {
	l := e.layout
	var record domain.SemanticRecord

	load, loadOK := ParseStrict(table.At(i, l.ValueColumn))
	freq, freqOK := ParseStrict(table.At(i+1, l.ValueColumn))
	record.Load = load
	record.Frequency = freq

	if label, value, ok := e.pair(table, i); ok && matchesAny(label, l.StressRule.Keywords) {
		record.Set(l.StressRule.Field, value.String())
	}

	if label, value, ok := e.pair(table, i+1); ok && matchesAny(label, l.StrainRule.Keywords) {
		record.Set(l.StrainRule.Field, fixedOrRaw(value))
		if second := table.At(i+1, l.SecondParamColumn); !second.IsBlank() {
			record.Set(domain.FieldStrainSecondary, fixedOrRaw(second))
		}
	}

	j := i + 2
	for ; j < len(table) && j < i+2+l.MaxAuxRows; j++ {
		if e.isMarker(table.At(j, 0), l.LoadLabel) {
			break
		}
		label, value, ok := e.pair(table, j)
		if !ok {
			continue
		}
		for _, rule := range l.AuxRules {
			if matchesAny(label, rule.Keywords) {
				record.Set(rule.Field, value.String())
				break
			}
		}
	}

	return record, loadOK && freqOK, j
}

// pair returns the label/value pair of a row when both cells are present
func (e *BlockExtractor) pair(table domain.RawTable, row int) (string, domain.Cell, bool) {
	label := table.At(row, e.layout.LabelColumn)
	value := table.At(row, e.layout.ParamColumn)
	if label.IsBlank() || value.IsBlank() {
		return "", value, false
	}
	return strings.TrimSpace(label.String()), value, true
}

func (e *BlockExtractor) isMarker(c domain.Cell, label string) bool {
	return c.Kind == domain.CellText && strings.TrimSpace(c.Text) == label
}

// fixedOrRaw reformats numeric strain values without scientific notation and
// keeps anything else verbatim
func fixedOrRaw(c domain.Cell) string {
	if f, ok := ParseStrict(c); ok {
		return FormatFixed(f)
	}
	return c.String()
}

func matchesAny(label string, keywords []string) bool {
	lower := strings.ToLower(label)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// RecordsToTable flattens records into a table with the fixed record header
func RecordsToTable(records []domain.SemanticRecord) domain.Table {
	t := domain.Table{
		Headers: append([]string(nil), domain.RecordFields...),
		Rows:    make([][]domain.Cell, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, r.Row())
	}
	return t
}
