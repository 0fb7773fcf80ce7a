package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/safemeridian/chaincfg/pkg/audit"
	"github.com/safemeridian/chaincfg/pkg/dag"
	"github.com/safemeridian/chaincfg/pkg/manifest"
	"github.com/safemeridian/chaincfg/pkg/registry/pypi"
	"github.com/safemeridian/chaincfg/pkg/resolver"
)

// defaultRegistryTTL bounds how long cached PyPI metadata is trusted.
const defaultRegistryTTL = 24 * time.Hour

// manifestCommand creates the manifest command group.
func (c *CLI) manifestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Audit and resolve pip requirements manifests",
	}

	cmd.PersistentFlags().String("policy", "", "path to a TOML policy file (default: built-in policy)")

	cmd.AddCommand(c.manifestLintCommand())
	cmd.AddCommand(c.manifestVerifyCommand())
	cmd.AddCommand(c.manifestResolveCommand())
	cmd.AddCommand(c.manifestGraphCommand())
	cmd.AddCommand(c.manifestAuditCommand())

	return cmd
}

// loadAuditor builds an Auditor from the --policy flag.
func loadAuditor(cmd *cobra.Command) (*audit.Auditor, error) {
	path, _ := cmd.Flags().GetString("policy")
	if path == "" {
		return audit.New(nil), nil
	}
	policy, err := audit.LoadPolicy(path)
	if err != nil {
		return nil, err
	}
	return audit.New(policy), nil
}

// newPyPIResolver builds a resolver backed by the cached PyPI client.
func newPyPIResolver(noCache bool) (*resolver.Resolver, error) {
	backend, err := newCache(noCache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return resolver.New(pypi.NewClient(backend, defaultRegistryTTL)), nil
}

// resolveManifest runs dependency resolution with a spinner on the terminal.
func resolveManifest(ctx context.Context, m *manifest.Manifest, opts resolver.Options, noCache bool) (*resolver.Resolution, error) {
	r, err := newPyPIResolver(noCache)
	if err != nil {
		return nil, err
	}

	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %s...", filepath.Base(m.Path)))
	spin.Start()
	res, err := r.Resolve(ctx, m, opts)
	spin.Stop()
	return res, err
}

// manifestLintCommand creates the "manifest lint" subcommand.
func (c *CLI) manifestLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <requirements.txt>",
		Short: "Check a manifest for duplicates, unpinned and forbidden packages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := loadAuditor(cmd)
			if err != nil {
				return err
			}
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			report := audit.NewReport(m.Path)
			report.Add(auditor.Lint(m)...)

			printInfo("Linted %s (%d requirements)", args[0], len(m.Requirements()))
			printFindings(report)
			if !report.Passed() {
				return fmt.Errorf("lint failed with %d error(s)", report.Errors)
			}
			return nil
		},
	}
}

// manifestVerifyCommand creates the "manifest verify" subcommand.
func (c *CLI) manifestVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <requirements.txt>",
		Short: "Verify that expected pins match the policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := loadAuditor(cmd)
			if err != nil {
				return err
			}
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			report := audit.NewReport(m.Path)
			report.Add(auditor.Verify(m)...)

			printFindings(report)
			if !report.Passed() {
				return fmt.Errorf("verify failed with %d error(s)", report.Errors)
			}
			return nil
		},
	}
}

// manifestResolveCommand creates the "manifest resolve" subcommand.
func (c *CLI) manifestResolveCommand() *cobra.Command {
	var (
		maxDepth    int
		refresh     bool
		noCache     bool
		jsonOut     bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <requirements.txt>",
		Short: "Resolve the transitive dependency graph from PyPI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			res, err := resolveManifest(cmd.Context(), m, resolver.Options{
				MaxDepth: maxDepth,
				Refresh:  refresh,
				Logger:   logger.Debugf,
			}, noCache)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Resolved %d packages", res.Graph.NodeCount()))

			for _, f := range res.Failures {
				printWarning("%s: %v", f.Name, f.Err)
			}

			if jsonOut {
				return writeResolutionJSON(cmd.OutOrStdout(), res)
			}
			if interactive {
				return browsePackages(res.Graph)
			}

			printSuccess("Resolved %s", args[0])
			printStats(res.Graph.NodeCount(), len(res.Constraints), !refresh && !noCache)
			printDetail("depth %d, %d direct, %d failures",
				res.Graph.MaxDepth(), len(res.Graph.Roots()), len(res.Failures))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum dependency depth to traverse")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and fetch fresh metadata")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the registry cache entirely")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the resolution as JSON")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse resolved packages interactively")

	return cmd
}

// browsePackages opens the interactive package browser.
func browsePackages(g *dag.Graph) error {
	model := NewPackageListModel(g)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("interactive browser: %w", err)
	}
	if m, ok := final.(PackageListModel); ok && m.Selected != nil {
		printPackageDetail(g, *m.Selected)
	}
	return nil
}

// metaString reads a string value from node metadata.
func metaString(m dag.Metadata, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// printPackageDetail prints the detail card for one resolved package.
func printPackageDetail(g *dag.Graph, n dag.Node) {
	printKeyValue("Package", n.ID)
	if v := metaString(n.Meta, dag.MetaVersion); v != "" {
		printKeyValue("Version", v)
	}
	if l := metaString(n.Meta, dag.MetaLicense); l != "" {
		printKeyValue("License", l)
	}
	if s := metaString(n.Meta, dag.MetaSummary); s != "" {
		printKeyValue("Summary", s)
	}
	printKeyValue("Depth", fmt.Sprintf("%d", n.Depth))
	if deps := g.Children(n.ID); len(deps) > 0 {
		printKeyValue("Depends on", strings.Join(deps, ", "))
	}
	if parents := g.Parents(n.ID); len(parents) > 0 {
		printKeyValue("Required by", strings.Join(parents, ", "))
	}
}

// resolutionJSON is the --json output shape for resolve.
type resolutionJSON struct {
	Packages []packageJSON `json:"packages"`
	Failures []failureJSON `json:"failures,omitempty"`
}

type packageJSON struct {
	Name     string   `json:"name"`
	Version  string   `json:"version,omitempty"`
	License  string   `json:"license,omitempty"`
	Depth    int      `json:"depth"`
	Requires []string `json:"requires,omitempty"`
}

type failureJSON struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

func writeResolutionJSON(w io.Writer, res *resolver.Resolution) error {
	out := resolutionJSON{}
	for _, id := range res.Graph.SortedIDs() {
		n, _ := res.Graph.Node(id)
		out.Packages = append(out.Packages, packageJSON{
			Name:     n.ID,
			Version:  metaString(n.Meta, dag.MetaVersion),
			License:  metaString(n.Meta, dag.MetaLicense),
			Depth:    n.Depth,
			Requires: res.Graph.Children(n.ID),
		})
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, failureJSON{Name: f.Name, Error: f.Err.Error()})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// manifestGraphCommand creates the "manifest graph" subcommand.
func (c *CLI) manifestGraphCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
		maxDepth int
		refresh  bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "graph <requirements.txt>",
		Short: "Export the dependency graph as DOT, SVG or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "dot" && format != "svg" && format != "png" {
				return fmt.Errorf("unknown format %q (want dot, svg or png)", format)
			}

			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			res, err := resolveManifest(cmd.Context(), m, resolver.Options{
				MaxDepth: maxDepth,
				Refresh:  refresh,
				Logger:   c.Logger.Debugf,
			}, noCache)
			if err != nil {
				return err
			}

			dot := dag.ToDOT(res.Graph, dag.DOTOptions{Detailed: detailed})

			var data []byte
			switch format {
			case "dot":
				data = []byte(dot)
			case "svg":
				data, err = dag.RenderSVG(cmd.Context(), dot)
			case "png":
				data, err = dag.RenderPNG(cmd.Context(), dot)
			}
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}

			if output == "" {
				output = strings.TrimSuffix(filepath.Base(m.Path), filepath.Ext(m.Path)) + "." + format
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Exported dependency graph (%d packages)", res.Graph.NodeCount())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: manifest name with format extension)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: dot, svg or png")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include versions and specifiers in the graph")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum dependency depth to traverse")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and fetch fresh metadata")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the registry cache entirely")

	return cmd
}

// manifestAuditCommand creates the "manifest audit" subcommand.
func (c *CLI) manifestAuditCommand() *cobra.Command {
	var (
		resolve bool
		refresh bool
		noCache bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "audit <requirements.txt>",
		Short: "Run the full audit: lint, pin verification and conflict checks",
		Long: `Audit runs every check against a requirements manifest. Lint and pin
verification work offline. With --resolve the transitive dependency graph is
fetched from PyPI and declared constraints are checked against pinned
versions, surfacing conflicts such as a pin that a dependency's specifier
range excludes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := loadAuditor(cmd)
			if err != nil {
				return err
			}
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			var res *resolver.Resolution
			if resolve {
				res, err = resolveManifest(cmd.Context(), m, resolver.Options{
					Refresh: refresh,
					Logger:  c.Logger.Debugf,
				}, noCache)
				if err != nil {
					return err
				}
			}

			report := auditor.Run(cmd.Context(), m, res)

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printInfo("Audit %s", report.ID)
				printFindings(report)
			}

			if !report.Passed() {
				return fmt.Errorf("audit failed with %d error(s)", report.Errors)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&resolve, "resolve", false, "resolve dependencies from PyPI and check for conflicts")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and fetch fresh metadata")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the registry cache entirely")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the report as JSON")

	return cmd
}
