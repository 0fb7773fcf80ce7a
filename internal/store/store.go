// Package store persists chain configurations and audit reports.
//
// The production backend is MongoDB; an in-memory implementation backs
// tests and the zero-configuration development mode.
package store

import (
	"context"

	"github.com/safemeridian/chaincfg/internal/chains"
	"github.com/safemeridian/chaincfg/pkg/audit"
)

// Store persists chain configurations and audit reports.
// Implementations must be safe for concurrent use.
type Store interface {
	// UpsertChain inserts or replaces a chain keyed by its ID.
	// It reports whether the chain was newly created.
	UpsertChain(ctx context.Context, c *chains.Chain) (created bool, err error)

	// GetChain returns the chain with the given ID, or an error with code
	// ErrCodeChainNotFound.
	GetChain(ctx context.Context, id int64) (*chains.Chain, error)

	// ListChains returns all chains ordered by ID.
	ListChains(ctx context.Context) ([]*chains.Chain, error)

	// AddFeatures adds feature keys to the global feature set, skipping ones
	// that already exist. It returns how many were new.
	AddFeatures(ctx context.Context, keys []string) (added int, err error)

	// ListFeatures returns all known feature keys in sorted order.
	ListFeatures(ctx context.Context) ([]string, error)

	// AddWallets adds wallet keys to the global wallet set, skipping ones
	// that already exist. It returns how many were new.
	AddWallets(ctx context.Context, keys []string) (added int, err error)

	// ListWallets returns all known wallet keys in sorted order.
	ListWallets(ctx context.Context) ([]string, error)

	// UpsertSafeApp inserts or replaces a safe app keyed by its URL.
	// It reports whether the app was newly created.
	UpsertSafeApp(ctx context.Context, app *chains.SafeApp) (created bool, err error)

	// ListSafeApps returns all safe apps ordered by URL.
	ListSafeApps(ctx context.Context) ([]*chains.SafeApp, error)

	// SaveReport stores an audit report keyed by its UUID.
	SaveReport(ctx context.Context, r *audit.Report) error

	// GetReport returns the report with the given ID, or an error with code
	// ErrCodeReportNotFound.
	GetReport(ctx context.Context, id string) (*audit.Report, error)

	// Close releases the backing connection.
	Close(ctx context.Context) error
}
