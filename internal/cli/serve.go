package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safemeridian/chaincfg/internal/config"
	"github.com/safemeridian/chaincfg/internal/server"
	"github.com/safemeridian/chaincfg/internal/store"
	"github.com/safemeridian/chaincfg/pkg/audit"
	"github.com/safemeridian/chaincfg/pkg/cache"
	"github.com/safemeridian/chaincfg/pkg/registry/pypi"
	"github.com/safemeridian/chaincfg/pkg/resolver"
)

// serveCommand creates the "serve" command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		policyPath string
		offline    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chain configuration and audit API",
		Long: `Serve starts the HTTP API exposing chain configurations and manifest
audits. With a MongoDB URI configured the service persists chains and audit
reports; without one it falls back to an in-memory store, which is useful
for local development.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			policy, err := loadServePolicy(policyPath)
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg, c)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			opts := []server.Option{server.WithLogger(c.Logger)}
			if !offline {
				backend, err := openServeCache(cmd.Context(), cfg.Cache)
				if err != nil {
					return err
				}
				defer backend.Close()
				opts = append(opts, server.WithResolver(
					resolver.New(pypi.NewClient(backend, cfg.Cache.TTL.Duration))))
			}

			srv := server.New(cfg.Server.Addr, st, audit.New(policy), opts...)
			c.Logger.Info("starting server", "addr", cfg.Server.Addr)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&policyPath, "policy", "", "path to a TOML policy file (default: built-in policy)")
	cmd.Flags().BoolVar(&offline, "offline", false, "disable PyPI resolution for audit requests")

	return cmd
}

func loadServePolicy(path string) (*audit.Policy, error) {
	if path == "" {
		return nil, nil
	}
	return audit.LoadPolicy(path)
}

// openStore picks MongoDB when configured, otherwise the in-memory store.
func openStore(ctx context.Context, cfg *config.Config, c *CLI) (store.Store, error) {
	if cfg.Mongo.URI == "" {
		c.Logger.Warn("no mongo uri configured, using in-memory store")
		return store.NewMemory(), nil
	}
	st, err := store.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return st, nil
}

// openServeCache builds the registry cache backend from server config.
func openServeCache(ctx context.Context, cfg config.Cache) (cache.Cache, error) {
	switch cfg.Backend {
	case "none", "":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr})
	case "file":
		dir := cfg.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want file, redis or none)", cfg.Backend)
	}
}
