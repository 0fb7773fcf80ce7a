package pep440

import (
	"strings"

	"github.com/safemeridian/chaincfg/pkg/errors"
)

// Operator is a PEP 440 comparison operator.
type Operator string

// Specifier operators, ordered roughly by how often manifests use them.
const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpLessEqual    Operator = "<="
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpGreater      Operator = ">"
	OpCompatible   Operator = "~="
	OpArbitrary    Operator = "==="
)

// operators in longest-match-first order for parsing.
var operators = []Operator{OpArbitrary, OpEqual, OpNotEqual, OpLessEqual, OpGreaterEqual, OpCompatible, OpLess, OpGreater}

// Specifier is a single version clause such as ">=6.20.2" or "==1.2.*".
type Specifier struct {
	Op       Operator
	Version  *Version // nil only for === clauses and wildcard clauses
	Wildcard bool     // true for ==X.Y.* / !=X.Y.* forms
	Raw      string   // version text as written (kept for === and wildcards)
}

// ParseSpecifier parses a single clause like ">=6.20.2".
func ParseSpecifier(s string) (*Specifier, error) {
	s = strings.TrimSpace(s)
	for _, op := range operators {
		if !strings.HasPrefix(s, string(op)) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(s, string(op)))
		if raw == "" {
			return nil, errors.New(errors.ErrCodeInvalidSpecifier, "missing version in specifier: %q", s)
		}
		return newSpecifier(op, raw)
	}
	return nil, errors.New(errors.ErrCodeInvalidSpecifier, "missing operator in specifier: %q", s)
}

func newSpecifier(op Operator, raw string) (*Specifier, error) {
	spec := &Specifier{Op: op, Raw: raw}

	if op == OpArbitrary {
		// === compares the exact string; no version parsing.
		return spec, nil
	}

	if strings.HasSuffix(raw, ".*") {
		if op != OpEqual && op != OpNotEqual {
			return nil, errors.New(errors.ErrCodeInvalidSpecifier, "wildcard requires == or !=: %q%s", op, raw)
		}
		prefix, err := ParseVersion(strings.TrimSuffix(raw, ".*"))
		if err != nil {
			return nil, err
		}
		spec.Wildcard = true
		spec.Version = prefix
		return spec, nil
	}

	v, err := ParseVersion(raw)
	if err != nil {
		return nil, err
	}
	spec.Version = v
	return spec, nil
}

// String returns the canonical clause form.
func (s *Specifier) String() string {
	if s.Op == OpArbitrary || s.Wildcard {
		return string(s.Op) + s.Raw
	}
	return string(s.Op) + s.Version.String()
}

// Contains reports whether version v satisfies the clause.
func (s *Specifier) Contains(v *Version) bool {
	switch s.Op {
	case OpArbitrary:
		return strings.EqualFold(strings.TrimSpace(v.Original()), s.Raw)
	case OpEqual:
		if s.Wildcard {
			return matchesPrefix(v, s.Version)
		}
		return equalIgnoringLocal(v, s.Version)
	case OpNotEqual:
		if s.Wildcard {
			return !matchesPrefix(v, s.Version)
		}
		return !equalIgnoringLocal(v, s.Version)
	case OpLessEqual:
		return v.Compare(s.Version) <= 0
	case OpGreaterEqual:
		return v.Compare(s.Version) >= 0
	case OpLess:
		// An exclusive upper bound does not admit pre-releases of the
		// boundary version unless the boundary itself is a pre-release.
		if !s.Version.IsPrerelease() && v.IsPrerelease() && cmpRelease(v.Release, s.Version.Release) == 0 {
			return false
		}
		return v.Compare(s.Version) < 0
	case OpGreater:
		// Symmetrically, an exclusive lower bound does not admit
		// post-releases of the boundary version.
		if s.Version.Post == nil && v.Post != nil && cmpRelease(v.Release, s.Version.Release) == 0 {
			return false
		}
		return v.Compare(s.Version) > 0
	case OpCompatible:
		return containsCompatible(v, s.Version)
	default:
		return false
	}
}

// equalIgnoringLocal implements == equality: if the clause has no local
// label, the candidate's local label is ignored.
func equalIgnoringLocal(v, spec *Version) bool {
	if spec.Local == "" && v.Local != "" {
		trimmed := *v
		trimmed.Local = ""
		return trimmed.Compare(spec) == 0
	}
	return v.Compare(spec) == 0
}

// matchesPrefix implements the ==X.Y.* wildcard: epoch must match and the
// candidate's release must start with the prefix release. Pre/post/dev parts
// of the prefix are compared when present.
func matchesPrefix(v, prefix *Version) bool {
	if v.Epoch != prefix.Epoch {
		return false
	}
	if len(v.Release) < len(prefix.Release) {
		// Zero-pad the candidate: 1.2 matches ==1.2.0.*
		padded := make([]int, len(prefix.Release))
		copy(padded, v.Release)
		if !sliceEqual(padded, prefix.Release) {
			return false
		}
		return true
	}
	return sliceEqual(v.Release[:len(prefix.Release)], prefix.Release)
}

func sliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// containsCompatible implements ~=: ~=X.Y.Z means >=X.Y.Z, ==X.Y.*.
func containsCompatible(v, spec *Version) bool {
	if len(spec.Release) < 2 {
		// ~= requires at least two release components; treat as >=.
		return v.Compare(spec) >= 0
	}
	if v.Compare(spec) < 0 {
		return false
	}
	prefix := &Version{Epoch: spec.Epoch, Release: spec.Release[:len(spec.Release)-1]}
	return matchesPrefix(v, prefix)
}

// SpecifierSet is a comma-separated conjunction of clauses, e.g. ">=6,<7".
// An empty set matches every version.
type SpecifierSet []*Specifier

// ParseSpecifierSet parses a comma-separated clause list. The empty string
// yields an empty set.
func ParseSpecifierSet(s string) (SpecifierSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var set SpecifierSet
	for _, clause := range strings.Split(s, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		spec, err := ParseSpecifier(clause)
		if err != nil {
			return nil, err
		}
		set = append(set, spec)
	}
	return set, nil
}

// Contains reports whether v satisfies every clause in the set.
func (ss SpecifierSet) Contains(v *Version) bool {
	for _, s := range ss {
		if !s.Contains(v) {
			return false
		}
	}
	return true
}

// String returns the canonical comma-joined form.
func (ss SpecifierSet) String() string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// PinnedVersion returns the exact version the set pins to, if the set
// contains a non-wildcard == or === clause. Returns nil otherwise.
func (ss SpecifierSet) PinnedVersion() *Version {
	for _, s := range ss {
		if s.Wildcard {
			continue
		}
		switch s.Op {
		case OpEqual:
			return s.Version
		case OpArbitrary:
			if v, err := ParseVersion(s.Raw); err == nil {
				return v
			}
		}
	}
	return nil
}

// IsPin reports whether the set pins to an exact version.
func (ss SpecifierSet) IsPin() bool { return ss.PinnedVersion() != nil }
