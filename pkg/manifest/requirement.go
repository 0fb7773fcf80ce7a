// Package manifest reads and writes pip requirements manifests: the flat
// `package==version` line format with # comments that Python deployments use
// to pin their dependency sets.
//
// The parser keeps the full line structure (blank lines, standalone comments,
// pip directives) so a manifest can be loaded, inspected, and serialized back
// without losing the rationale comments that document why a pin exists.
package manifest

import (
	"regexp"
	"strings"

	"github.com/safemeridian/chaincfg/pkg/pep440"
)

// nameRE matches a PEP 508 project name at the start of a requirement line.
var nameRE = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)

// Requirement is a single parsed requirement line such as
// "celery[redis]==5.5.3  # task queue".
type Requirement struct {
	Name       string              // name as written (e.g. "Django")
	Extras     []string            // extras from the [..] clause, in written order
	Specifiers pep440.SpecifierSet // version clauses, possibly empty
	Marker     string              // environment marker after ";", raw text
	Comment    string              // trailing comment without the "#"
	LineNumber int                 // 1-based position in the manifest
}

// Key returns the PEP 503 normalized name used for lookups and comparisons.
func (r *Requirement) Key() string { return Normalize(r.Name) }

// Pinned reports whether the requirement pins an exact version with == or ===.
func (r *Requirement) Pinned() bool { return r.Specifiers.IsPin() }

// PinnedVersion returns the exact pinned version, or nil when unpinned.
func (r *Requirement) PinnedVersion() *pep440.Version { return r.Specifiers.PinnedVersion() }

// String serializes the requirement back to manifest form.
func (r *Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteByte('[')
		b.WriteString(strings.Join(r.Extras, ","))
		b.WriteByte(']')
	}
	b.WriteString(r.Specifiers.String())
	if r.Marker != "" {
		b.WriteString(" ; ")
		b.WriteString(r.Marker)
	}
	if r.Comment != "" {
		b.WriteString("  # ")
		b.WriteString(r.Comment)
	}
	return b.String()
}

// Normalize converts a project name to its canonical form following PEP 503:
// lowercase, with runs of ".", "-" and "_" collapsed to a single hyphen.
func Normalize(name string) string {
	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r == '.' || r == '-' || r == '_' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('-')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}
