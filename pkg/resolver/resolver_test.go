package resolver

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/safemeridian/chaincfg/pkg/manifest"
	"github.com/safemeridian/chaincfg/pkg/pep440"
	"github.com/safemeridian/chaincfg/pkg/registry/pypi"
)

type fakeFetcher struct {
	releases map[string]*pypi.PackageInfo // keyed by name@version
	latest   map[string]*pypi.PackageInfo
}

func (f *fakeFetcher) FetchPackage(_ context.Context, name string, _ bool) (*pypi.PackageInfo, error) {
	if p, ok := f.latest[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no metadata for %s", name)
}

func (f *fakeFetcher) FetchRelease(_ context.Context, name, version string, _ bool) (*pypi.PackageInfo, error) {
	if p, ok := f.releases[name+"@"+version]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no release %s@%s", name, version)
}

func pkg(name, version string, deps ...pypi.Constraint) *pypi.PackageInfo {
	return &pypi.PackageInfo{Name: name, Version: version, Requires: deps}
}

func dep(name, spec string) pypi.Constraint {
	ss, err := pep440.ParseSpecifierSet(spec)
	if err != nil {
		panic(err)
	}
	return pypi.Constraint{Name: name, Specifiers: ss}
}

func loadManifest(t *testing.T, content string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func TestResolvePinnedManifest(t *testing.T) {
	f := &fakeFetcher{
		releases: map[string]*pypi.PackageInfo{
			"safe-eth-py@5.8.0": pkg("safe-eth-py", "5.8.0", dep("web3", ">=6,<7")),
			"web3@6.20.2":       pkg("web3", "6.20.2", dep("eth-abi", ">=4.0.0")),
		},
		latest: map[string]*pypi.PackageInfo{
			"eth-abi": pkg("eth-abi", "5.1.0"),
		},
	}

	m := loadManifest(t, "safe-eth-py==5.8.0\nweb3==6.20.2\n")
	res, err := New(f).Resolve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("Failures = %v", res.Failures)
	}

	g := res.Graph
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
	n, ok := g.Node("web3")
	if !ok {
		t.Fatal("web3 node missing")
	}
	if v := n.Meta["version"]; v != "6.20.2" {
		t.Errorf("web3 version meta = %v, want 6.20.2 (pinned release must be fetched)", v)
	}
	if n.Depth != 0 {
		t.Errorf("web3 depth = %d, want 0 (declared in manifest)", n.Depth)
	}

	var found bool
	for _, c := range res.Constraints {
		if c.From == "safe-eth-py" && c.To == "web3" {
			found = true
			if c.Specifiers.String() != ">=6,<7" {
				t.Errorf("constraint specifiers = %q", c.Specifiers.String())
			}
		}
	}
	if !found {
		t.Error("missing safe-eth-py -> web3 constraint")
	}
}

func TestResolveRecordsRootFailures(t *testing.T) {
	f := &fakeFetcher{
		releases: map[string]*pypi.PackageInfo{
			"django@4.2.11": pkg("django", "4.2.11"),
		},
	}
	m := loadManifest(t, "Django==4.2.11\nno-such-package==1.0\n")
	res, err := New(f).Resolve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].Name != "no-such-package" {
		t.Errorf("Failures = %v, want one for no-such-package", res.Failures)
	}
	if _, ok := res.Graph.Node("django"); !ok {
		t.Error("django node missing despite successful fetch")
	}
}

func TestResolveTransitiveFailureIgnored(t *testing.T) {
	f := &fakeFetcher{
		releases: map[string]*pypi.PackageInfo{
			"web3@6.20.2": pkg("web3", "6.20.2", dep("eth-abi", ">=4.0.0")),
		},
		// eth-abi missing from latest: transitive fetch fails
	}
	m := loadManifest(t, "web3==6.20.2\n")
	res, err := New(f).Resolve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Failures) != 0 {
		t.Errorf("transitive failure recorded as root failure: %v", res.Failures)
	}
	// The edge and placeholder node survive even though metadata is missing.
	if _, ok := res.Graph.Node("eth-abi"); !ok {
		t.Error("placeholder node for eth-abi missing")
	}
	if res.Graph.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", res.Graph.EdgeCount())
	}
}

func TestResolveMaxDepth(t *testing.T) {
	f := &fakeFetcher{
		releases: map[string]*pypi.PackageInfo{
			"a@1.0": pkg("a", "1.0", dep("b", "")),
		},
		latest: map[string]*pypi.PackageInfo{
			"b": pkg("b", "1.0", dep("c", "")),
			"c": pkg("c", "1.0", dep("d", "")),
			"d": pkg("d", "1.0"),
		},
	}
	m := loadManifest(t, "a==1.0\n")
	res, err := New(f).Resolve(context.Background(), m, Options{MaxDepth: 1})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Depth 0 (a) and 1 (b) are crawled; b's deps produce a placeholder for c
	// but c itself is not fetched, so d never appears.
	if _, ok := res.Graph.Node("d"); ok {
		t.Error("node d present, crawl exceeded MaxDepth")
	}
}

func TestResolveSharedDependency(t *testing.T) {
	f := &fakeFetcher{
		releases: map[string]*pypi.PackageInfo{
			"x@1.0": pkg("x", "1.0", dep("shared", ">=1")),
			"y@2.0": pkg("y", "2.0", dep("shared", ">=1,<2")),
		},
		latest: map[string]*pypi.PackageInfo{
			"shared": pkg("shared", "1.5"),
		},
	}
	m := loadManifest(t, "x==1.0\ny==2.0\n")
	res, err := New(f).Resolve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Graph.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3 (shared dep fetched once)", res.Graph.NodeCount())
	}
	if got := res.Graph.InDegree("shared"); got != 2 {
		t.Errorf("InDegree(shared) = %d, want 2", got)
	}
	if len(res.Constraints) != 2 {
		t.Errorf("Constraints = %d, want 2", len(res.Constraints))
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	if opts.MaxDepth != DefaultMaxDepth || opts.MaxNodes != DefaultMaxNodes {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}

	custom := Options{MaxDepth: 2, MaxNodes: 10}.WithDefaults()
	if custom.MaxDepth != 2 || custom.MaxNodes != 10 {
		t.Errorf("explicit values overwritten: %+v", custom)
	}
}
