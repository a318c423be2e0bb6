package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"predictflow/pkg/contracts/domain"
)

var (
	// literalPattern matches a complete decimal literal, optionally in scientific notation
	literalPattern = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

	// leadingNumberPattern finds the first number embedded in text such as "15.15MPA"
	leadingNumberPattern = regexp.MustCompile(`-?\d+(?:\.\d*)?(?:[eE][-+]?\d+)?`)

	// groupedPattern matches numbers written with thousands separators. Group 1
	// is the number; it must not continue a digit run or a fraction.
	groupedPattern = regexp.MustCompile(`(?:^|[^\d.])(\d{1,3}(?:,\d{3})+(?:\.\d+)?)`)

	localeNoise = strings.NewReplacer(
		"\u00a0", "",  // no-break space
		"\u202f", "",  // narrow no-break space
		"\u2212", "-", // minus sign
	)
)

// Coerce converts a cell into a number or the missing marker.
// Numbers pass through, blanks are missing, text is parsed as a clean literal
// first and otherwise by its first embedded number with any unit suffix dropped.
func Coerce(cell domain.Cell) domain.Number {
	switch cell.Kind {
	case domain.CellNumber:
		return domain.Some(cell.Num)
	case domain.CellText:
		return CoerceString(cell.Text)
	}
	return domain.Missing()
}

// CoerceString applies Coerce to raw text
func CoerceString(text string) domain.Number {
	s := normalizeNumericText(text)
	if s == "" {
		return domain.Missing()
	}
	s = stripGrouping(s)

	if literalPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return domain.Some(f)
		}
	}

	m := leadingNumberPattern.FindString(s)
	if m == "" {
		return domain.Missing()
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// out of range, e.g. "1e999"
		return domain.Missing()
	}
	return domain.Some(f)
}

// stripGrouping drops thousands separators from grouped numbers that are not
// followed by another digit
func stripGrouping(s string) string {
	matches := groupedPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[2], m[3]
		if end < len(s) && s[end] >= '0' && s[end] <= '9' {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(strings.ReplaceAll(s[start:end], ",", ""))
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

// CoerceAll coerces every cell of a column
func CoerceAll(cells []domain.Cell) []domain.Number {
	out := make([]domain.Number, len(cells))
	for i, c := range cells {
		out[i] = Coerce(c)
	}
	return out
}

// ParseStrict parses a cell as a plain number without unit stripping
func ParseStrict(cell domain.Cell) (float64, bool) {
	switch cell.Kind {
	case domain.CellNumber:
		n := domain.Some(cell.Num)
		return n.Value, n.Valid
	case domain.CellText:
		s := normalizeNumericText(cell.Text)
		if !literalPattern.MatchString(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n := domain.Some(f)
		return n.Value, n.Valid
	}
	return 0, false
}

// IsNumericColumn reports whether a column has at least one value and every
// non-blank cell coerces to a number
func IsNumericColumn(cells []domain.Cell) bool {
	seen := false
	for _, c := range cells {
		if c.IsBlank() {
			continue
		}
		if !Coerce(c).Valid {
			return false
		}
		seen = true
	}
	return seen
}

// FormatFixed renders f in fixed-point notation with up to ten fractional
// digits, trailing zeros and a dangling decimal point removed
func FormatFixed(f float64) string {
	s := strconv.FormatFloat(f, 'f', 10, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func normalizeNumericText(text string) string {
	return strings.TrimSpace(localeNoise.Replace(width.Fold.String(text)))
}
