// Package audit checks pinned Python manifests against a policy.
//
// Three layers of checks build on each other. Lint inspects the manifest
// text alone: duplicates, unpinned requirements, forbidden packages.
// Verify compares the manifest against the policy's expected pins. Conflict
// checking takes a resolved dependency graph and proves that every version
// clause declared against a pinned package admits the pinned version, which
// is what makes a fully pinned manifest installable without backtracking.
package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/safemeridian/chaincfg/pkg/errors"
	"github.com/safemeridian/chaincfg/pkg/manifest"
	"github.com/safemeridian/chaincfg/pkg/observability"
	"github.com/safemeridian/chaincfg/pkg/pep440"
	"github.com/safemeridian/chaincfg/pkg/resolver"
)

// Auditor applies a policy to manifests.
type Auditor struct {
	policy *Policy
}

// New creates an Auditor. A nil policy falls back to [DefaultPolicy].
func New(policy *Policy) *Auditor {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Auditor{policy: policy}
}

// Policy returns the policy the auditor applies.
func (a *Auditor) Policy() *Policy { return a.policy }

// Lint checks the manifest text against the policy without touching the
// network: duplicate declarations, forbidden packages, unpinned
// requirements, and directives the auditor cannot follow.
func (a *Auditor) Lint(m *manifest.Manifest) []Finding {
	var findings []Finding

	dups := m.Duplicates()
	keys := make([]string, 0, len(dups))
	for key := range dups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		reqs := dups[key]
		lines := make([]int, len(reqs))
		for i, r := range reqs {
			lines[i] = r.LineNumber
		}
		findings = append(findings, Finding{
			Severity: SeverityError,
			Code:     errors.ErrCodeDuplicatePkg,
			Package:  key,
			Line:     lines[0],
			Message:  fmt.Sprintf("%s is declared more than once (lines %v)", key, lines),
		})
	}

	for _, req := range m.Requirements() {
		key := req.Key()
		if a.policy.isForbidden(key) {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Code:     errors.ErrCodeForbiddenPkg,
				Package:  key,
				Line:     req.LineNumber,
				Message:  fmt.Sprintf("%s is forbidden by policy", key),
			})
		}
		if a.policy.RequirePins && !req.Pinned() && !a.policy.isExempt(key) {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Code:     errors.ErrCodeUnpinned,
				Package:  key,
				Line:     req.LineNumber,
				Message:  fmt.Sprintf("%s is not pinned to an exact version", key),
			})
		}
	}

	for _, d := range m.Directives() {
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Code:     errors.ErrCodeUnsupported,
			Line:     d.Number,
			Message:  fmt.Sprintf("directive not audited: %s", d.Raw),
		})
	}

	return findings
}

// Verify checks the manifest against the policy's expected pins. A missing
// package, a missing pin, or a pin at a different version is an error; the
// pin's rationale is included in the message so the finding explains itself.
func (a *Auditor) Verify(m *manifest.Manifest) []Finding {
	var findings []Finding

	for _, exp := range a.policy.Expected {
		want := pep440.MustParseVersion(exp.Version)

		req, ok := m.Get(exp.Package)
		if !ok {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Code:     errors.ErrCodePinMismatch,
				Package:  exp.Package,
				Message:  annotate(fmt.Sprintf("%s==%s expected but the package is not declared", exp.Package, exp.Version), exp.Rationale),
			})
			continue
		}

		got := req.PinnedVersion()
		if got == nil {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Code:     errors.ErrCodePinMismatch,
				Package:  exp.Package,
				Line:     req.LineNumber,
				Message:  annotate(fmt.Sprintf("%s must be pinned to exactly %s", exp.Package, exp.Version), exp.Rationale),
			})
			continue
		}

		if !got.Equal(want) {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Code:     errors.ErrCodePinMismatch,
				Package:  exp.Package,
				Line:     req.LineNumber,
				Message:  annotate(fmt.Sprintf("%s is pinned to %s, expected %s", exp.Package, got.Original(), exp.Version), exp.Rationale),
			})
		}
	}

	return findings
}

// CheckConflicts verifies that the resolved dependency closure is
// satisfiable with the manifest's pins: every version clause any package
// declares against a pinned package must admit the pinned version. Root
// packages whose metadata could not be fetched become error findings.
func (a *Auditor) CheckConflicts(m *manifest.Manifest, res *resolver.Resolution) []Finding {
	var findings []Finding

	for _, fail := range res.Failures {
		findings = append(findings, Finding{
			Severity: SeverityError,
			Code:     errors.ErrCodePackageNotFound,
			Package:  fail.Name,
			Message:  fmt.Sprintf("cannot resolve %s: %v", fail.Name, fail.Err),
		})
	}

	pins := make(map[string]*pep440.Version)
	lines := make(map[string]int)
	for _, req := range m.Requirements() {
		if v := req.PinnedVersion(); v != nil {
			pins[req.Key()] = v
			lines[req.Key()] = req.LineNumber
		}
	}

	for _, c := range res.Constraints {
		pinned, ok := pins[c.To]
		if !ok || len(c.Specifiers) == 0 {
			continue
		}
		if !c.Specifiers.Contains(pinned) {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Code:     errors.ErrCodeConflict,
				Package:  c.To,
				Line:     lines[c.To],
				Message: fmt.Sprintf("%s==%s conflicts with %s, which requires %s %s",
					c.To, pinned.Original(), c.From, c.To, c.Specifiers.String()),
			})
		}
	}

	return findings
}

// Run performs a full audit: lint, expected-pin verification, and, when a
// resolution is provided, conflict checking over the dependency closure.
// Pass a nil resolution for an offline audit.
func (a *Auditor) Run(ctx context.Context, m *manifest.Manifest, res *resolver.Resolution) *Report {
	start := time.Now()
	observability.Audit().OnAuditStart(ctx, m.Path)

	report := NewReport(m.Path)
	report.Add(a.Lint(m)...)
	report.Add(a.Verify(m)...)
	if res != nil {
		report.Add(a.CheckConflicts(m, res)...)
		report.Packages = res.Graph.NodeCount()
	}

	observability.Audit().OnAuditComplete(ctx, m.Path, len(report.Findings), time.Since(start), nil)
	return report
}

func annotate(msg, rationale string) string {
	if rationale == "" {
		return msg
	}
	return msg + " (" + rationale + ")"
}
