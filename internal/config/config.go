// Package config loads the service configuration: a TOML file with
// environment variable overrides for the knobs operators commonly set.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/safemeridian/chaincfg/pkg/errors"
)

// Config is the full service configuration.
type Config struct {
	Server   Server   `toml:"server"`
	Mongo    Mongo    `toml:"mongo"`
	Cache    Cache    `toml:"cache"`
	Importer Importer `toml:"importer"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Mongo configures the persistence backend. When URI is empty the service
// runs on the in-memory store.
type Mongo struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// Cache configures registry response caching.
// Backend is one of "file", "redis", or "none".
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// Duration is a time.Duration that decodes from TOML strings like "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Importer configures the default config import. The field names mirror the
// environment variables the deployment already uses.
type Importer struct {
	ConfigURL       string   `toml:"config_url"`
	DefaultChainIDs []string `toml:"default_chain_ids"` // list of IDs, or the single entry "ALL"
	ImportFeatures  bool     `toml:"import_features"`
	ImportWallets   bool     `toml:"import_wallets"`
	ImportSafeApps  bool     `toml:"import_safe_apps"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	return &Config{
		Server: Server{Addr: ":8080"},
		Mongo:  Mongo{Database: "chaincfg"},
		Cache:  Cache{Backend: "file", TTL: Duration{24 * time.Hour}},
		Importer: Importer{
			ConfigURL: "https://raw.githubusercontent.com/protofire/safe-configs/refs/heads/main/",
		},
	}
}

// Load reads the TOML file at path (skipped when path is empty) and applies
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot read config file: %s", path)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid config file: %s", path)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CHAINCFG_LISTEN_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		c.Mongo.Database = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Backend = "redis"
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("CONFIG_URL"); v != "" {
		c.Importer.ConfigURL = v
	}
	if v, ok := os.LookupEnv("DEFAULT_CHAIN_IDS"); ok {
		c.Importer.DefaultChainIDs = splitChainIDs(v)
	}
	if v := os.Getenv("IMPORT_FEATURES"); v != "" {
		c.Importer.ImportFeatures = v == "1"
	}
	if v := os.Getenv("IMPORT_WALLETS"); v != "" {
		c.Importer.ImportWallets = v == "1"
	}
	if v := os.Getenv("IMPORT_SAFE_APPS"); v != "" {
		c.Importer.ImportSafeApps = v == "1"
	}
}

func splitChainIDs(raw string) []string {
	if strings.EqualFold(strings.TrimSpace(raw), "ALL") {
		return []string{"ALL"}
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
