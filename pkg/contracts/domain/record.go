package domain

import "strconv"

// Field names of an extracted block record, in output order
const (
	FieldLoad               = "load"
	FieldFrequency          = "frequency"
	FieldStressIntensityMax = "stress_intensity_max"
	FieldStrainPrimary      = "strain_primary"
	FieldStrainSecondary    = "strain_secondary"
	FieldMembraneStress     = "membrane_stress"
	FieldBendingStress      = "bending_stress"
)

// RecordFields is the fixed header order of an extracted table
var RecordFields = []string{
	FieldLoad,
	FieldFrequency,
	FieldStressIntensityMax,
	FieldStrainPrimary,
	FieldStrainSecondary,
	FieldMembraneStress,
	FieldBendingStress,
}

// SemanticRecord is one block reassembled into a flat record.
// Optional fields keep the source text, units included.
type SemanticRecord struct {
	Load               float64
	Frequency          float64
	StressIntensityMax *string
	StrainPrimary      *string
	StrainSecondary    *string
	MembraneStress     *string
	BendingStress      *string
}

// Row renders the record as cells in RecordFields order
func (r SemanticRecord) Row() []Cell {
	return []Cell{
		NumberCell(r.Load),
		NumberCell(r.Frequency),
		optionalCell(r.StressIntensityMax),
		optionalCell(r.StrainPrimary),
		optionalCell(r.StrainSecondary),
		optionalCell(r.MembraneStress),
		optionalCell(r.BendingStress),
	}
}

// Get returns the field value as text and whether it is present
func (r SemanticRecord) Get(field string) (string, bool) {
	switch field {
	case FieldLoad:
		return strconv.FormatFloat(r.Load, 'f', -1, 64), true
	case FieldFrequency:
		return strconv.FormatFloat(r.Frequency, 'f', -1, 64), true
	case FieldStressIntensityMax:
		return deref(r.StressIntensityMax)
	case FieldStrainPrimary:
		return deref(r.StrainPrimary)
	case FieldStrainSecondary:
		return deref(r.StrainSecondary)
	case FieldMembraneStress:
		return deref(r.MembraneStress)
	case FieldBendingStress:
		return deref(r.BendingStress)
	}
	return "", false
}

// Set assigns an optional text field by name. Load and frequency are numeric
// and are not settable here; unknown names report false.
func (r *SemanticRecord) Set(field, value string) bool {
	v := value
	switch field {
	case FieldStressIntensityMax:
		r.StressIntensityMax = &v
	case FieldStrainPrimary:
		r.StrainPrimary = &v
	case FieldStrainSecondary:
		r.StrainSecondary = &v
	case FieldMembraneStress:
		r.MembraneStress = &v
	case FieldBendingStress:
		r.BendingStress = &v
	default:
		return false
	}
	return true
}

func optionalCell(s *string) Cell {
	if s == nil {
		return BlankCell()
	}
	return TextCell(*s)
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
