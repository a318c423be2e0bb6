package dataprocessing

import (
	"strings"

	"golang.org/x/text/cases"
)

// Role is the semantic role a header keyword points at
type Role string

const (
	RoleNone      Role = ""
	RoleLoad      Role = "load"
	RoleFrequency Role = "frequency"
	RoleInput     Role = "input" // other driving quantities
	RoleOutput    Role = "output"
)

// IsInput reports whether the role marks a model input
func (r Role) IsInput() bool {
	return r == RoleLoad || r == RoleFrequency || r == RoleInput
}

// Keyword is one vocabulary entry
type Keyword struct {
	Term string
	Role Role
}

// Vocabulary is an ordered keyword table. Matching is case-insensitive
// substring containment and the first matching entry wins.
type Vocabulary []Keyword

// DefaultVocabulary covers the English and Chinese headers seen in
// structural-analysis exports
var DefaultVocabulary = Vocabulary{
	{"load", RoleLoad},
	{"载荷", RoleLoad},
	{"载重", RoleLoad},
	{"payload", RoleLoad},

	{"freq", RoleFrequency},
	{"frequency", RoleFrequency},
	{"频率", RoleFrequency},
	{"倍数", RoleFrequency},

	{"mult", RoleInput},
	{"multiple", RoleInput},
	{"force", RoleInput},
	{"外力", RoleInput},
	{"作用力", RoleInput},

	{"stress", RoleOutput},
	{"应力", RoleOutput},
	{"strain", RoleOutput},
	{"应变", RoleOutput},
	{"temp", RoleOutput},
	{"temperature", RoleOutput},
	{"温度", RoleOutput},
	{"life", RoleOutput},
	{"寿命", RoleOutput},
	{"lifetime", RoleOutput},
	{"cycle", RoleOutput},
	{"displacement", RoleOutput},
	{"位移", RoleOutput},
	{"deformation", RoleOutput},
	{"变形", RoleOutput},
}

// Match returns the first keyword contained in header whose role satisfies accept
func (v Vocabulary) Match(header string, accept func(Role) bool) (Keyword, bool) {
	h := fold(header)
	for _, kw := range v {
		if accept != nil && !accept(kw.Role) {
			continue
		}
		if strings.Contains(h, fold(kw.Term)) {
			return kw, true
		}
	}
	return Keyword{}, false
}

// Terms returns the terms with the given role, in table order
func (v Vocabulary) Terms(role Role) []string {
	var out []string
	for _, kw := range v {
		if kw.Role == role {
			out = append(out, kw.Term)
		}
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func isRole(r Role) func(Role) bool {
	return func(x Role) bool { return x == r }
}
