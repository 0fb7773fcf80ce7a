package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".cache", "chaincfg")
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	want := filepath.Join("/tmp/xdg-cache", "chaincfg")
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestNewCacheDisabled(t *testing.T) {
	c, err := newCache(true)
	if err != nil {
		t.Fatalf("newCache(true) error: %v", err)
	}
	if c == nil {
		t.Fatal("newCache(true) returned nil")
	}
}

func TestRootCommand(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	if root.Use != "chaincfg" {
		t.Errorf("root.Use = %q, want %q", root.Use, "chaincfg")
	}

	want := []string{"manifest", "serve", "import", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestManifestSubcommands(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	var mc string
	for _, sub := range root.Commands() {
		if sub.Name() != "manifest" {
			continue
		}
		names := make([]string, 0, len(sub.Commands()))
		for _, s := range sub.Commands() {
			names = append(names, s.Name())
		}
		mc = strings.Join(names, " ")
	}

	for _, name := range []string{"lint", "verify", "resolve", "graph", "audit"} {
		if !strings.Contains(mc, name) {
			t.Errorf("manifest command missing subcommand %q (have: %s)", name, mc)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	c.SetLogLevel(log.DebugLevel)

	if c.Logger.GetLevel() != log.DebugLevel {
		t.Errorf("log level = %v, want %v", c.Logger.GetLevel(), log.DebugLevel)
	}
}
