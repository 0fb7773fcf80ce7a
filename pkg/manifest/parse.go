package manifest

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/safemeridian/chaincfg/pkg/errors"
	"github.com/safemeridian/chaincfg/pkg/pep440"
)

// LineKind distinguishes the kinds of lines a requirements manifest contains.
type LineKind int

const (
	// KindBlank is an empty (or whitespace-only) line.
	KindBlank LineKind = iota
	// KindComment is a standalone # comment line.
	KindComment
	// KindRequirement is a parsed package requirement.
	KindRequirement
	// KindDirective is a pip option (-r, --hash, ...) or a URL/editable
	// requirement. Directives are preserved but not interpreted.
	KindDirective
)

// Line is a single manifest line with its parsed interpretation.
type Line struct {
	Kind   LineKind
	Raw    string       // original text, without trailing newline
	Req    *Requirement // set for KindRequirement
	Number int          // 1-based line number
}

// Manifest is a parsed requirements file with its full line structure.
type Manifest struct {
	Path  string // source path, empty when parsed from a reader
	Lines []Line
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "open manifest %s", path)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse reads a requirements manifest from r.
//
// Line continuations (trailing backslash) are joined before parsing, and the
// logical line keeps the number of its first physical line. A malformed
// requirement aborts the parse with an error carrying that line number.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		start := lineNo

		// Join continuation lines into one logical line.
		logical := raw
		for strings.HasSuffix(strings.TrimRight(logical, " \t"), `\`) && scanner.Scan() {
			lineNo++
			logical = strings.TrimSuffix(strings.TrimRight(logical, " \t"), `\`) + " " + strings.TrimSpace(scanner.Text())
			raw = logical
		}

		line, err := parseLine(logical, start)
		if err != nil {
			return nil, err
		}
		line.Raw = raw
		m.Lines = append(m.Lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "read manifest")
	}

	return m, nil
}

func parseLine(text string, number int) (Line, error) {
	trimmed := strings.TrimSpace(text)

	switch {
	case trimmed == "":
		return Line{Kind: KindBlank, Number: number}, nil
	case strings.HasPrefix(trimmed, "#"):
		return Line{Kind: KindComment, Number: number}, nil
	case strings.HasPrefix(trimmed, "-"),
		strings.Contains(trimmed, "://"),
		strings.HasPrefix(trimmed, "git+"):
		return Line{Kind: KindDirective, Number: number}, nil
	}

	req, err := parseRequirement(trimmed, number)
	if err != nil {
		return Line{}, err
	}
	// "name @ url" direct references are directives, not version requirements.
	if req == nil {
		return Line{Kind: KindDirective, Number: number}, nil
	}
	return Line{Kind: KindRequirement, Req: req, Number: number}, nil
}

// parseRequirement parses "name[extras]specifiers ; marker # comment".
// Returns (nil, nil) for direct URL references ("name @ https://...").
func parseRequirement(text string, number int) (*Requirement, error) {
	req := &Requirement{LineNumber: number}

	// Trailing comment.
	if idx := strings.Index(text, "#"); idx >= 0 {
		req.Comment = strings.TrimSpace(text[idx+1:])
		text = strings.TrimSpace(text[:idx])
	}

	// Environment marker.
	if idx := strings.Index(text, ";"); idx >= 0 {
		req.Marker = strings.TrimSpace(text[idx+1:])
		text = strings.TrimSpace(text[:idx])
	}

	nm := nameRE.FindString(text)
	if nm == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequirement,
			"line %d: invalid requirement: %q", number, text)
	}
	req.Name = nm
	rest := strings.TrimSpace(text[len(nm):])

	if strings.HasPrefix(rest, "@") {
		return nil, nil
	}

	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return nil, errors.New(errors.ErrCodeInvalidRequirement,
				"line %d: unterminated extras in %q", number, text)
		}
		for _, extra := range strings.Split(rest[1:end], ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				req.Extras = append(req.Extras, extra)
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	if rest != "" {
		specs, err := pep440.ParseSpecifierSet(rest)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequirement, err,
				"line %d: requirement %s", number, req.Name)
		}
		req.Specifiers = specs
	}

	return req, nil
}

// Requirements returns the parsed requirements in manifest order.
func (m *Manifest) Requirements() []*Requirement {
	var reqs []*Requirement
	for _, l := range m.Lines {
		if l.Kind == KindRequirement {
			reqs = append(reqs, l.Req)
		}
	}
	return reqs
}

// Get returns the first requirement whose normalized name matches name.
func (m *Manifest) Get(name string) (*Requirement, bool) {
	key := Normalize(name)
	for _, r := range m.Requirements() {
		if r.Key() == key {
			return r, true
		}
	}
	return nil, false
}

// Duplicates returns requirements declared more than once, keyed by
// normalized name.
func (m *Manifest) Duplicates() map[string][]*Requirement {
	byKey := make(map[string][]*Requirement)
	for _, r := range m.Requirements() {
		byKey[r.Key()] = append(byKey[r.Key()], r)
	}
	dups := make(map[string][]*Requirement)
	for key, reqs := range byKey {
		if len(reqs) > 1 {
			dups[key] = reqs
		}
	}
	return dups
}

// Directives returns the raw text of lines the parser does not interpret
// (pip options, URL and editable requirements).
func (m *Manifest) Directives() []Line {
	var out []Line
	for _, l := range m.Lines {
		if l.Kind == KindDirective {
			out = append(out, l)
		}
	}
	return out
}

// String serializes the manifest back to its file form. Comment and blank
// lines round-trip verbatim; requirement lines are re-serialized in
// canonical form.
func (m *Manifest) String() string {
	var b strings.Builder
	for _, l := range m.Lines {
		switch l.Kind {
		case KindRequirement:
			b.WriteString(l.Req.String())
		default:
			b.WriteString(l.Raw)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
