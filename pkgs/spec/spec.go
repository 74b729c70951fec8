package spec

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Spec identifies a package together with an optional version and a set of
// variant selections, e.g. "ascent@develop+mpi~cuda".
type Spec struct {
	Name     string
	Version  string
	Variants map[string]bool
}

// Condition is a predicate over variant selections, written with the same
// sigils as a spec string: "+python+mpi" holds when both variants are on,
// "~shared" holds when shared is off. The empty condition always holds.
type Condition string

// Parse parses a spec string of the form "name[@version][{+|~}variant...]".
func Parse(s string) (Spec, error) {
	sp := Spec{Variants: map[string]bool{}}

	i := strings.IndexAny(s, "@+~")
	if i == -1 {
		i = len(s)
	}
	sp.Name = s[:i]
	if sp.Name == "" {
		return Spec{}, fmt.Errorf("invalid spec %q: missing package name", s)
	}

	rest := s[i:]
	for rest != "" {
		sigil := rest[0]
		rest = rest[1:]
		j := strings.IndexAny(rest, "@+~")
		if j == -1 {
			j = len(rest)
		}
		token := rest[:j]
		rest = rest[j:]

		switch sigil {
		case '@':
			if token == "" {
				return Spec{}, fmt.Errorf("invalid spec %q: empty version", s)
			}
			if sp.Version != "" {
				return Spec{}, fmt.Errorf("invalid spec %q: version given twice", s)
			}
			sp.Version = token
		case '+', '~':
			if token == "" {
				return Spec{}, fmt.Errorf("invalid spec %q: empty variant name", s)
			}
			sp.Variants[token] = sigil == '+'
		}
	}
	return sp, nil
}

// Enabled reports whether the named variant is selected on.
// Variants not present in the spec are off.
func (s Spec) Enabled(name string) bool {
	return s.Variants[name]
}

// Satisfies reports whether the spec's variant selections meet every term
// of the condition.
func (s Spec) Satisfies(c Condition) bool {
	terms, err := c.Terms()
	if err != nil {
		return false
	}
	for name, want := range terms {
		if s.Variants[name] != want {
			return false
		}
	}
	return true
}

// WithDefaults returns a copy of the spec where any variant not explicitly
// selected takes the given default value.
func (s Spec) WithDefaults(defaults map[string]bool) Spec {
	out := Spec{Name: s.Name, Version: s.Version, Variants: make(map[string]bool, len(defaults))}
	maps.Copy(out.Variants, defaults)
	maps.Copy(out.Variants, s.Variants)
	return out
}

// String renders the spec in canonical form: name, version, then variants
// sorted by name.
func (s Spec) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	if s.Version != "" {
		b.WriteByte('@')
		b.WriteString(s.Version)
	}
	names := make([]string, 0, len(s.Variants))
	for name := range s.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if s.Variants[name] {
			b.WriteByte('+')
		} else {
			b.WriteByte('~')
		}
		b.WriteString(name)
	}
	return b.String()
}

// Terms parses the condition into variant name to required state.
func (c Condition) Terms() (map[string]bool, error) {
	terms := map[string]bool{}
	rest := string(c)
	for rest != "" {
		sigil := rest[0]
		if sigil != '+' && sigil != '~' {
			return nil, fmt.Errorf("invalid condition %q: expected '+' or '~'", string(c))
		}
		rest = rest[1:]
		j := strings.IndexAny(rest, "+~")
		if j == -1 {
			j = len(rest)
		}
		name := rest[:j]
		if name == "" {
			return nil, fmt.Errorf("invalid condition %q: empty variant name", string(c))
		}
		terms[name] = sigil == '+'
		rest = rest[j:]
	}
	return terms, nil
}
