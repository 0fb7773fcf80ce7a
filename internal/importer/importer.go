// Package importer loads the default chain configuration set into the store.
//
// It mirrors the deployment's existing import pipeline: a base location
// (HTTP URL or local directory) holds configs/{features,wallets,safeApps,
// chains}.json, and environment-driven toggles select which sets to import.
// Chains are upserted keyed by chain ID, safe apps by URL, wallets and
// features as global key sets. Logo and icon downloads are best effort and
// never abort an import.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/safemeridian/chaincfg/internal/config"
	"github.com/safemeridian/chaincfg/internal/store"
	"github.com/safemeridian/chaincfg/pkg/errors"
)

const (
	featuresFile = "configs/features.json"
	walletsFile  = "configs/wallets.json"
	safeAppsFile = "configs/safeApps.json"
	chainsFile   = "configs/chains.json"

	downloadTimeout = 10 * time.Second
	maxImageBytes   = 1 << 20 // 1 MiB
)

// Wallets attached to every imported chain.
var defaultWallets = []string{"metamask", "ledger", "trezor", "walletConnect_v2"}

// Features attached when a chain entry declares none of its own.
var defaultFeatures = []string{
	"EIP1271", "COUNTERFACTUAL", "DELETE_TX", "SAFE_141",
	"SAFE_APPS", "SAFE_TX_GAS_OPTIONAL", "SPEED_UP_TX",
}

// Importer loads default configuration data into a Store.
type Importer struct {
	store    store.Store
	http     *http.Client
	logger   *log.Logger
	mediaDir string
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(i *Importer) { i.logger = l }
}

// WithMediaDir sets the directory downloaded logos are written to.
// When empty, logos are not downloaded.
func WithMediaDir(dir string) Option {
	return func(i *Importer) { i.mediaDir = dir }
}

// WithHTTPClient overrides the HTTP client used for config and image
// downloads. Used by tests.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Importer) { i.http = c }
}

// New creates an Importer writing to the given store.
func New(s store.Store, opts ...Option) *Importer {
	imp := &Importer{
		store:  s,
		http:   &http.Client{Timeout: downloadTimeout},
		logger: log.Default(),
	}
	for _, o := range opts {
		o(imp)
	}
	return imp
}

// Summary counts what an import run did.
type Summary struct {
	Features      int
	Wallets       int
	ChainsCreated int
	ChainsUpdated int
	AppsCreated   int
	AppsUpdated   int
}

// Run performs the import selected by cfg. Chain import runs whenever
// DefaultChainIDs is non-empty; the other sets run when their toggle is on.
func (i *Importer) Run(ctx context.Context, cfg config.Importer) (*Summary, error) {
	base := cfg.ConfigURL
	if base == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no config url configured")
	}

	chainIDs, err := i.selectChainIDs(ctx, base, cfg.DefaultChainIDs)
	if err != nil {
		return nil, err
	}
	i.logger.Info("starting import", "chains", chainIDs)

	sum := &Summary{}
	if cfg.ImportFeatures {
		if err := i.importFeatures(ctx, base, sum); err != nil {
			return nil, err
		}
	}
	if cfg.ImportWallets {
		if err := i.importWallets(ctx, base, sum); err != nil {
			return nil, err
		}
	}
	if cfg.ImportSafeApps {
		if err := i.importSafeApps(ctx, base, chainIDs, sum); err != nil {
			return nil, err
		}
	}
	if len(chainIDs) > 0 {
		if err := i.importChains(ctx, base, chainIDs, sum); err != nil {
			return nil, err
		}
	}

	i.logger.Info("import completed",
		"features", sum.Features, "wallets", sum.Wallets,
		"chains_created", sum.ChainsCreated, "chains_updated", sum.ChainsUpdated,
		"apps_created", sum.AppsCreated, "apps_updated", sum.AppsUpdated)
	return sum, nil
}

// selectChainIDs expands the configured chain ID list. The single entry
// "ALL" means every chain present in chains.json.
func (i *Importer) selectChainIDs(ctx context.Context, base string, ids []string) ([]int64, error) {
	if len(ids) == 1 && strings.EqualFold(ids[0], "ALL") {
		var entries []chainEntry
		if err := i.loadJSON(ctx, joinPath(base, chainsFile), &entries); err != nil {
			return nil, err
		}
		out := make([]int64, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.ChainID.value)
		}
		return out, nil
	}

	out := make([]int64, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidChain, err, "invalid chain id %q", raw)
		}
		out = append(out, id)
	}
	return out, nil
}

func (i *Importer) importFeatures(ctx context.Context, base string, sum *Summary) error {
	var keys []string
	if err := i.loadJSON(ctx, joinPath(base, featuresFile), &keys); err != nil {
		return err
	}
	added, err := i.store.AddFeatures(ctx, keys)
	if err != nil {
		return err
	}
	sum.Features = added
	i.logger.Info("imported features", "new", added)
	return nil
}

func (i *Importer) importWallets(ctx context.Context, base string, sum *Summary) error {
	var keys []string
	if err := i.loadJSON(ctx, joinPath(base, walletsFile), &keys); err != nil {
		return err
	}
	added, err := i.store.AddWallets(ctx, keys)
	if err != nil {
		return err
	}
	sum.Wallets = added
	i.logger.Info("imported wallets", "new", added)
	return nil
}

// loadJSON fetches and decodes a JSON document from an HTTP URL or a local
// file path.
func (i *Importer) loadJSON(ctx context.Context, location string, v any) error {
	var data []byte
	if isURL(location) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "bad config location: %s", location)
		}
		resp, err := i.http.Do(req)
		if err != nil {
			return errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", location)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", location, resp.StatusCode)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(errors.ErrCodeNetwork, err, "read %s", location)
		}
	} else {
		var err error
		data, err = os.ReadFile(location)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", location)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", location)
	}
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// joinPath joins a base location and a relative config path, via URL
// resolution for HTTP bases and filepath join otherwise.
func joinPath(base, rel string) string {
	if isURL(base) {
		u, err := url.Parse(base)
		if err != nil {
			return base + rel
		}
		ref, err := url.Parse(rel)
		if err != nil {
			return base + rel
		}
		return u.ResolveReference(ref).String()
	}
	return filepath.Join(base, filepath.FromSlash(rel))
}

// downloadImage fetches an image into mediaDir, returning the stored path.
// Failures are reported to the caller, which logs them as warnings.
func (i *Importer) downloadImage(ctx context.Context, imageURL, fileName string) (string, error) {
	if i.mediaDir == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := i.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	if err := os.MkdirAll(i.mediaDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(i.mediaDir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
