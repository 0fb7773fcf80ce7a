// Package pep440 implements Python version and version-specifier semantics
// as defined by PEP 440.
//
// The package covers the parts of the scheme that dependency manifests and
// registry metadata actually use: epochs, release segments, pre/post/dev
// releases, local version labels, and the full specifier operator set
// (==, !=, <, <=, >, >=, ~=, === and the ==X.Y.* wildcard form).
//
// Versions are parsed into a canonical form, so "1.0.0-alpha1", "1.0.0a1"
// and "1.0.0.A1" all compare equal.
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/safemeridian/chaincfg/pkg/errors"
)

// preRank maps pre-release phases to their ordering rank (a < b < rc).
var preRank = map[string]int{"a": 0, "b": 1, "rc": 2}

// versionRE matches a PEP 440 version after lowercasing.
// Groups: 1 epoch, 2 release, 3 pre phase, 4 pre number,
// 5 post segment, 6 dev segment, 7 local label.
var versionRE = regexp.MustCompile(`^` +
	`(?:(\d+)!)?` + // epoch
	`(\d+(?:\.\d+)*)` + // release segment
	`(?:[._-]?(a|b|rc|c|alpha|beta|pre|preview)[._-]?(\d*))?` + // pre-release
	`((?:-\d+)|(?:[._-]?(?:post|rev|r)[._-]?\d*))?` + // post-release
	`([._-]?dev[._-]?\d*)?` + // dev-release
	`(?:\+([a-z0-9]+(?:[._-][a-z0-9]+)*))?` + // local label
	`$`)

var digitsRE = regexp.MustCompile(`\d+`)

// Version is a parsed PEP 440 version.
//
// The zero value is not meaningful; use ParseVersion. Version values are
// immutable after construction and safe for concurrent reads.
type Version struct {
	Epoch   int
	Release []int  // release segment, at least one component
	Pre     *Tag   // pre-release (a/b/rc), nil if absent
	Post    *int   // post-release number, nil if absent
	Dev     *int   // dev-release number, nil if absent
	Local   string // local version label (after "+"), empty if absent

	original string
}

// Tag is a phased release tag such as the "rc1" in "6.20.2rc1".
type Tag struct {
	Phase string // "a", "b", or "rc"
	Num   int
}

// ParseVersion parses s as a PEP 440 version.
// Leading "v" prefixes and surrounding whitespace are accepted and ignored,
// and phase spellings are canonicalized (alpha -> a, preview -> rc, ...).
func ParseVersion(s string) (*Version, error) {
	original := strings.TrimSpace(s)
	norm := strings.TrimPrefix(strings.ToLower(original), "v")

	m := versionRE.FindStringSubmatch(norm)
	if m == nil {
		return nil, errors.New(errors.ErrCodeInvalidVersion, "invalid version: %q", s)
	}

	v := &Version{original: original}

	if m[1] != "" {
		v.Epoch, _ = strconv.Atoi(m[1])
	}
	for _, part := range strings.Split(m[2], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidVersion, "invalid release segment in %q", s)
		}
		v.Release = append(v.Release, n)
	}
	if m[3] != "" {
		v.Pre = &Tag{Phase: canonicalPhase(m[3]), Num: atoiDefault(m[4])}
	}
	if m[5] != "" {
		n := segmentNumber(m[5])
		v.Post = &n
	}
	if m[6] != "" {
		n := segmentNumber(m[6])
		v.Dev = &n
	}
	v.Local = m[7]

	return v, nil
}

// MustParseVersion parses s and panics on error. For tests and constants.
func MustParseVersion(s string) *Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func canonicalPhase(p string) string {
	switch p {
	case "alpha":
		return "a"
	case "beta":
		return "b"
	case "c", "pre", "preview":
		return "rc"
	default:
		return p
	}
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// segmentNumber extracts the trailing number from a post/dev segment like
// ".post2", "-1" or "dev". A bare keyword counts as number 0.
func segmentNumber(seg string) int {
	return atoiDefault(digitsRE.FindString(seg))
}

// IsPrerelease reports whether the version is a dev or pre release.
func (v *Version) IsPrerelease() bool {
	return v.Pre != nil || v.Dev != nil
}

// String returns the canonical form of the version.
func (v *Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%d", n)
	}
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Phase, v.Pre.Num)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	if v.Local != "" {
		fmt.Fprintf(&b, "+%s", v.Local)
	}
	return b.String()
}

// Original returns the version string as supplied to ParseVersion.
func (v *Version) Original() string { return v.original }

// Compare returns -1, 0, or 1 when v sorts before, equal to, or after o.
//
// Ordering follows PEP 440: epoch first, then the release segment with
// shorter releases padded with zeros, then dev < pre < final < post. Local
// labels only order versions whose public part is equal.
func (v *Version) Compare(o *Version) int {
	if c := cmpInt(v.Epoch, o.Epoch); c != 0 {
		return c
	}
	if c := cmpRelease(v.Release, o.Release); c != 0 {
		return c
	}
	if c := cmpPre(v, o); c != 0 {
		return c
	}
	if c := cmpOptional(v.Post, o.Post, -1); c != 0 {
		return c
	}
	if c := cmpOptional(v.Dev, o.Dev, 1); c != 0 {
		return c
	}
	return cmpLocal(v.Local, o.Local)
}

// Equal reports whether v and o are the same version (including local label).
func (v *Version) Equal(o *Version) bool { return v.Compare(o) == 0 }

// Less reports whether v sorts before o.
func (v *Version) Less(o *Version) bool { return v.Compare(o) < 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpRelease(a, b []int) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if c := cmpInt(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

// cmpPre orders the pre-release component. A dev release with no pre tag
// sorts before any pre tag, which sorts before a final release.
func cmpPre(a, b *Version) int {
	ra, rb := preKey(a), preKey(b)
	if c := cmpInt(ra[0], rb[0]); c != 0 {
		return c
	}
	return cmpInt(ra[1], rb[1])
}

func preKey(v *Version) [2]int {
	if v.Pre != nil {
		return [2]int{preRank[v.Pre.Phase], v.Pre.Num}
	}
	if v.Dev != nil && v.Post == nil {
		// 1.0.dev1 < 1.0a1: bare dev releases sort before any pre tag
		return [2]int{-1, 0}
	}
	return [2]int{3, 0} // final or post release
}

// cmpOptional compares optional numeric components. absent is the rank of a
// missing value relative to any present one: -1 for post (absent sorts
// first), 1 for dev (absent sorts last).
func cmpOptional(a, b *int, absent int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return absent
	case b == nil:
		return -absent
	default:
		return cmpInt(*a, *b)
	}
}

func cmpLocal(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	as, bs := splitLocal(a), splitLocal(b)
	n := max(len(as), len(bs))
	for i := 0; i < n; i++ {
		if i >= len(as) {
			return -1
		}
		if i >= len(bs) {
			return 1
		}
		if c := cmpLocalSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return 0
}

func splitLocal(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
}

// cmpLocalSegment: numeric segments sort after alphanumeric ones and compare
// numerically among themselves (PEP 440 local ordering).
func cmpLocalSegment(a, b string) int {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return cmpInt(an, bn)
	case aerr == nil:
		return 1
	case berr == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}
