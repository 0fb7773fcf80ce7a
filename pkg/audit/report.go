package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/safemeridian/chaincfg/pkg/errors"
)

// Severity classifies a finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// rank orders severities for worst-of comparisons.
func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Finding is a single audit result tied to a package or manifest line.
type Finding struct {
	Severity Severity    `json:"severity"`
	Code     errors.Code `json:"code"`
	Package  string      `json:"package,omitempty"`
	Line     int         `json:"line,omitempty"`
	Message  string      `json:"message"`
}

// Report is the outcome of auditing one manifest against a policy.
// Reports are identified by UUID so they can be stored and fetched later.
type Report struct {
	ID        string    `json:"id"`
	Manifest  string    `json:"manifest,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Findings  []Finding `json:"findings"`
	Packages  int       `json:"packages"` // resolved package count, 0 if not resolved
	Errors    int       `json:"errors"`
	Warnings  int       `json:"warnings"`
}

// NewReport creates an empty report for the given manifest path.
func NewReport(manifestPath string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Manifest:  manifestPath,
		CreatedAt: time.Now().UTC(),
	}
}

// Add appends findings and updates the severity counters.
func (r *Report) Add(findings ...Finding) {
	for _, f := range findings {
		r.Findings = append(r.Findings, f)
		switch f.Severity {
		case SeverityError:
			r.Errors++
		case SeverityWarning:
			r.Warnings++
		}
	}
}

// Worst returns the highest severity across all findings, or SeverityInfo
// for a clean report.
func (r *Report) Worst() Severity {
	worst := SeverityInfo
	for _, f := range r.Findings {
		if f.Severity.rank() > worst.rank() {
			worst = f.Severity
		}
	}
	return worst
}

// Passed reports whether the audit produced no error findings.
func (r *Report) Passed() bool { return r.Errors == 0 }

// ExitCode maps the report outcome to a process exit code:
// 0 for clean or warnings only, 1 when any error finding exists.
func (r *Report) ExitCode() int {
	if r.Passed() {
		return 0
	}
	return 1
}
