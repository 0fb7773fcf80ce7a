// Package pypi implements a client for the PyPI JSON API.
//
// The client fetches package metadata either for the latest release or for a
// specific pinned version, and extracts runtime dependency constraints from
// the requires_dist metadata. Responses are cached through the shared
// registry client.
package pypi

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/safemeridian/chaincfg/pkg/cache"
	"github.com/safemeridian/chaincfg/pkg/manifest"
	"github.com/safemeridian/chaincfg/pkg/pep440"
	"github.com/safemeridian/chaincfg/pkg/registry"
)

var (
	reqDistRE = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\]]*\])?\s*\(?([^;()]*)\)?\s*(?:;\s*(.+))?$`)
	skipRE    = regexp.MustCompile(`extra|dev|test`)
)

// Constraint is a dependency declaration extracted from requires_dist:
// the declared package plus the version clauses that apply to it.
type Constraint struct {
	Name       string              // normalized dependency name
	Specifiers pep440.SpecifierSet // version clauses, possibly empty
	Marker     string              // environment marker, raw (informational)
}

// PackageInfo holds metadata for a Python package release from PyPI.
//
// Package names are normalized following PEP 503 (lowercase, underscores→hyphens).
// Requires lists only runtime dependency constraints; extras, dev, and test
// dependencies are excluded.
type PackageInfo struct {
	Name     string            // Normalized package name (never empty in valid info)
	Version  string            // Version string of this release
	Requires []Constraint      // Direct runtime dependency constraints
	Summary  string            // Short package description (may be empty)
	License  string            // License name or expression (may be empty)
	Author   string            // Author name (may be empty)
	HomePage string            // Homepage URL (may be empty)
	URLs     map[string]string // Project URLs from metadata (may be nil)
}

// Dependencies returns the normalized names of the runtime dependencies.
func (p *PackageInfo) Dependencies() []string {
	deps := make([]string, len(p.Requires))
	for i, c := range p.Requires {
		deps[i] = c.Name
	}
	return deps
}

// Client provides access to the PyPI package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*registry.Client
	baseURL string
}

// NewClient creates a PyPI client with the given cache backend.
// Pass cache.NewNullCache() to disable caching.
func NewClient(backend cache.Cache, ttl time.Duration) *Client {
	return &Client{
		Client:  registry.NewClient(backend, "pypi:", ttl, nil),
		baseURL: "https://pypi.org/pypi",
	}
}

// SetBaseURL overrides the PyPI API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

// FetchPackage retrieves metadata for the latest release of a package.
//
// The pkg parameter is normalized automatically (case-insensitive,
// underscores→hyphens). If refresh is true, the cache is bypassed.
//
// Returns [registry.ErrNotFound] if the package doesn't exist and
// [registry.ErrNetwork] for HTTP failures.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = manifest.Normalize(pkg)
	return c.fetchCached(ctx, pkg, fmt.Sprintf("%s/%s/json", c.baseURL, pkg), refresh)
}

// FetchRelease retrieves metadata for a specific version of a package.
// This is the call audits use: constraints must come from the pinned
// release, not from whatever happens to be latest.
func (c *Client) FetchRelease(ctx context.Context, pkg, version string, refresh bool) (*PackageInfo, error) {
	pkg = manifest.Normalize(pkg)
	key := pkg + "@" + version
	return c.fetchCached(ctx, key, fmt.Sprintf("%s/%s/%s/json", c.baseURL, pkg, version), refresh)
}

func (c *Client) fetchCached(ctx context.Context, key, url string, refresh bool) (*PackageInfo, error) {
	var info PackageInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, url, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, url string, info *PackageInfo) error {
	var data apiResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%w: %s", err, url)
		}
		return err
	}

	urls := make(map[string]string, len(data.Info.ProjectURLs))
	for k, v := range data.Info.ProjectURLs {
		if s, ok := v.(string); ok {
			urls[k] = s
		}
	}

	*info = PackageInfo{
		Name:     manifest.Normalize(data.Info.Name),
		Version:  data.Info.Version,
		Summary:  data.Info.Summary,
		License:  extractLicenseType(data.Info.License, data.Info.Classifiers),
		Requires: extractConstraints(data.Info.RequiresDist),
		Author:   data.Info.Author,
		HomePage: data.Info.HomePage,
		URLs:     urls,
	}
	return nil
}

// extractConstraints parses requires_dist entries into constraints, skipping
// extras/dev/test dependencies the way installers do for a plain install.
// Unparseable entries are dropped rather than failing the fetch; registry
// metadata is not always clean.
func extractConstraints(requires []string) []Constraint {
	seen := make(map[string]bool)
	var out []Constraint
	for _, req := range requires {
		m := reqDistRE.FindStringSubmatch(strings.TrimSpace(req))
		if m == nil {
			continue
		}
		marker := strings.TrimSpace(m[4])
		if marker != "" && skipRE.MatchString(marker) {
			continue
		}
		name := manifest.Normalize(m[1])
		if seen[name] {
			continue
		}
		specs, err := pep440.ParseSpecifierSet(strings.TrimSpace(m[3]))
		if err != nil {
			continue
		}
		seen[name] = true
		out = append(out, Constraint{Name: name, Specifiers: specs, Marker: marker})
	}
	return out
}

type apiResponse struct {
	Info apiInfo `json:"info"`
}

type apiInfo struct {
	Name         string         `json:"name"`
	Version      string         `json:"version"`
	Summary      string         `json:"summary"`
	License      string         `json:"license"`
	Classifiers  []string       `json:"classifiers"`
	RequiresDist []string       `json:"requires_dist"`
	ProjectURLs  map[string]any `json:"project_urls"`
	HomePage     string         `json:"home_page"`
	Author       string         `json:"author"`
}

// extractLicenseType extracts a short license identifier from PyPI data.
// It prefers the classifier (e.g., "License :: OSI Approved :: MIT License" -> "MIT License")
// and falls back to the license field if it's short enough.
func extractLicenseType(license string, classifiers []string) string {
	for _, c := range classifiers {
		if strings.HasPrefix(c, "License :: ") {
			parts := strings.Split(c, " :: ")
			if len(parts) >= 3 {
				return parts[len(parts)-1]
			}
		}
	}

	// If license field is short (likely just the type), use it
	if license != "" && len(license) < 100 && !strings.Contains(license, "\n") {
		return strings.TrimSpace(license)
	}

	// Otherwise, try to extract type from the beginning of the license text
	if license != "" {
		firstLine := strings.TrimSpace(strings.Split(license, "\n")[0])
		if len(firstLine) < 50 {
			return firstLine
		}
	}

	return ""
}
