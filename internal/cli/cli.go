// Package cli implements the chaincfg command-line interface.
//
// The CLI has two halves. The manifest commands (lint, verify, resolve,
// graph, audit) operate on pip requirements files locally, talking to PyPI
// through a cached HTTP client. The service commands (serve, import) run
// the chain configuration API and the default config importer.
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so long-running operations can report
// structured progress.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/safemeridian/chaincfg/pkg/buildinfo"
	"github.com/safemeridian/chaincfg/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "chaincfg"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance writing logs to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Chaincfg audits Python manifests and serves Safe chain configuration",
		Long:         `Chaincfg is a toolkit for auditing pip requirements manifests against a dependency policy and for running the Safe chain configuration service with its default config importer.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.manifestCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache selects a cache backend for registry lookups.
// With noCache set, or when no cache directory can be determined,
// lookups go straight to the network.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/chaincfg/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
