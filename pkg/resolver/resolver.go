// Package resolver builds dependency graphs for pinned Python manifests.
//
// Starting from every requirement a manifest declares, the resolver crawls
// registry metadata concurrently and produces a graph whose edges carry the
// version clauses each package declares against its dependencies. Packages
// pinned in the manifest are fetched at their pinned release, so the
// constraints in the result reflect what an installation of the manifest
// would actually see.
package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/safemeridian/chaincfg/pkg/dag"
	"github.com/safemeridian/chaincfg/pkg/manifest"
	"github.com/safemeridian/chaincfg/pkg/observability"
	"github.com/safemeridian/chaincfg/pkg/pep440"
	"github.com/safemeridian/chaincfg/pkg/registry/pypi"
)

const workers = 20

const (
	DefaultMaxDepth = 50             // Default maximum dependency depth
	DefaultMaxNodes = 5000           // Default maximum packages to fetch
	DefaultCacheTTL = 24 * time.Hour // Default HTTP cache duration
)

// Fetcher retrieves package metadata from a registry.
// [pypi.Client] is the production implementation.
type Fetcher interface {
	// FetchPackage retrieves metadata for the latest release of a package.
	FetchPackage(ctx context.Context, name string, refresh bool) (*pypi.PackageInfo, error)
	// FetchRelease retrieves metadata for a specific version of a package.
	FetchRelease(ctx context.Context, name, version string, refresh bool) (*pypi.PackageInfo, error)
}

// Options configures dependency resolution behavior.
type Options struct {
	MaxDepth int                  // Maximum depth to traverse (default: 50)
	MaxNodes int                  // Maximum packages to fetch (default: 5000)
	Refresh  bool                 // Bypass cache for fresh data
	Logger   func(string, ...any) // Progress/error callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Constraint records one dependency declaration discovered during the crawl:
// the From package (at the version it was fetched at) declares Specifiers
// against the To package.
type Constraint struct {
	From       string // declaring package, normalized
	To         string // dependency, normalized
	Specifiers pep440.SpecifierSet
	Marker     string
}

// Failure records a manifest-declared package whose metadata could not be
// fetched. Transitive fetch failures are logged but not recorded.
type Failure struct {
	Name string
	Err  error
}

// Resolution is the result of crawling a manifest's dependency closure.
type Resolution struct {
	Graph       *dag.Graph
	Constraints []Constraint
	Failures    []Failure
}

// Resolver crawls a manifest's transitive dependencies via a Fetcher.
type Resolver struct {
	fetcher Fetcher
}

// New creates a Resolver backed by the given Fetcher.
func New(fetcher Fetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve crawls the dependency closure of every requirement in the manifest.
//
// Requirements pinned with == are fetched at their pinned release. Any other
// package, including transitive dependencies without a manifest pin, is
// fetched at its latest release. The crawl is breadth-ordered and bounded by
// Options.MaxDepth and Options.MaxNodes.
func (r *Resolver) Resolve(ctx context.Context, m *manifest.Manifest, opts Options) (*Resolution, error) {
	reqs := m.Requirements()

	pins := make(map[string]string, len(reqs))
	for _, req := range reqs {
		if v := req.PinnedVersion(); v != nil {
			pins[req.Key()] = v.Original()
		}
	}

	c := &crawler{
		ctx:     ctx,
		opts:    opts.WithDefaults(),
		fetcher: r.fetcher,
		pins:    pins,
		roots:   make(map[string]bool, len(reqs)),
		g:       dag.New(nil),
		visited: make(map[string]bool),
		jobs:    make(chan job, workers*2),
		results: make(chan result, workers*2),
	}
	for _, req := range reqs {
		c.roots[req.Key()] = true
	}

	start := time.Now()
	observability.Audit().OnResolveStart(ctx, m.Path)
	res, err := c.run(reqs)
	pkgCount := 0
	if res != nil {
		pkgCount = res.Graph.NodeCount()
	}
	observability.Audit().OnResolveComplete(ctx, m.Path, pkgCount, time.Since(start), err)
	return res, err
}

type crawler struct {
	ctx     context.Context
	opts    Options
	fetcher Fetcher
	pins    map[string]string
	roots   map[string]bool

	g *dag.Graph

	jobs    chan job
	results chan result
	wg      sync.WaitGroup

	mu          sync.Mutex
	visited     map[string]bool
	constraints []Constraint
	failures    []Failure
	pending     int64
	nodeCount   int32
}

type job struct {
	name  string
	depth int
}

type result struct {
	job
	pkg *pypi.PackageInfo
	err error
}

func (c *crawler) run(reqs []*manifest.Requirement) (*Resolution, error) {
	for range workers {
		c.wg.Add(1)
		go c.worker()
	}

	queued := 0
	for _, req := range reqs {
		if c.enqueue(job{name: req.Key()}) {
			queued++
		}
	}

	if queued > 0 {
		if err := c.collect(); err != nil {
			close(c.jobs)
			c.wg.Wait()
			return nil, err
		}
	}

	close(c.jobs)
	c.wg.Wait()

	return &Resolution{Graph: c.g, Constraints: c.constraints, Failures: c.failures}, nil
}

func (c *crawler) worker() {
	defer c.wg.Done()
	for j := range c.jobs {
		if c.ctx.Err() != nil {
			atomic.AddInt64(&c.pending, -1)
			continue
		}
		pkg, err := c.fetch(j.name)
		c.results <- result{job: j, pkg: pkg, err: err}
	}
}

func (c *crawler) fetch(name string) (*pypi.PackageInfo, error) {
	if version, ok := c.pins[name]; ok {
		return c.fetcher.FetchRelease(c.ctx, name, version, c.opts.Refresh)
	}
	return c.fetcher.FetchPackage(c.ctx, name, c.opts.Refresh)
}

func (c *crawler) enqueue(j job) bool {
	c.mu.Lock()
	if c.visited[j.name] {
		c.mu.Unlock()
		return false
	}
	c.visited[j.name] = true
	c.mu.Unlock()

	atomic.AddInt64(&c.pending, 1)

	go func() { c.jobs <- j }()
	return true
}

func (c *crawler) collect() error {
	for {
		select {
		case r := <-c.results:
			c.handle(r)
			if atomic.AddInt64(&c.pending, -1) == 0 {
				return nil
			}
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
}

func (c *crawler) handle(r result) {
	if r.err != nil {
		c.opts.Logger("fetch failed: %s: %v", r.name, r.err)
		if c.roots[r.name] {
			c.mu.Lock()
			c.failures = append(c.failures, Failure{Name: r.name, Err: r.err})
			c.mu.Unlock()
		}
		return
	}

	c.addNode(r.name, r.depth, r.pkg)
	atomic.AddInt32(&c.nodeCount, 1)
	c.crawlDeps(r)
}

func (c *crawler) addNode(name string, depth int, pkg *pypi.PackageInfo) {
	meta := dag.Metadata{dag.MetaVersion: pkg.Version}
	if pkg.Summary != "" {
		meta[dag.MetaSummary] = pkg.Summary
	}
	if pkg.License != "" {
		meta[dag.MetaLicense] = pkg.License
	}

	if n, ok := c.g.Node(name); ok {
		// Placeholder added when a dependent declared the edge first.
		n.Meta = meta
		if depth < n.Depth {
			n.Depth = depth
		}
		return
	}
	_ = c.g.AddNode(dag.Node{ID: name, Depth: depth, Meta: meta})
}

func (c *crawler) crawlDeps(r result) {
	next := r.depth + 1
	count := atomic.LoadInt32(&c.nodeCount)

	for _, dep := range r.pkg.Requires {
		if _, ok := c.g.Node(dep.Name); !ok {
			_ = c.g.AddNode(dag.Node{ID: dep.Name, Depth: next})
		}
		edgeMeta := dag.Metadata{}
		if s := dep.Specifiers.String(); s != "" {
			edgeMeta[dag.MetaSpecifier] = s
		}
		_ = c.g.AddEdge(dag.Edge{From: r.name, To: dep.Name, Meta: edgeMeta})

		c.mu.Lock()
		c.constraints = append(c.constraints, Constraint{
			From:       r.name,
			To:         dep.Name,
			Specifiers: dep.Specifiers,
			Marker:     dep.Marker,
		})
		c.mu.Unlock()

		if next <= c.opts.MaxDepth && int(count) < c.opts.MaxNodes {
			c.enqueue(job{name: dep.Name, depth: next})
		}
	}
}
