package store

import (
	"context"
	"sort"
	"sync"

	"github.com/safemeridian/chaincfg/internal/chains"
	"github.com/safemeridian/chaincfg/pkg/audit"
	"github.com/safemeridian/chaincfg/pkg/errors"
)

// Memory is an in-process Store. It backs tests and development mode.
type Memory struct {
	mu       sync.RWMutex
	chains   map[int64]chains.Chain
	features map[string]bool
	wallets  map[string]bool
	apps     map[string]chains.SafeApp
	reports  map[string]audit.Report
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		chains:   make(map[int64]chains.Chain),
		features: make(map[string]bool),
		wallets:  make(map[string]bool),
		apps:     make(map[string]chains.SafeApp),
		reports:  make(map[string]audit.Report),
	}
}

func (m *Memory) UpsertChain(_ context.Context, c *chains.Chain) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.chains[c.ID]
	m.chains[c.ID] = *c
	return !exists, nil
}

func (m *Memory) GetChain(_ context.Context, id int64) (*chains.Chain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chains[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeChainNotFound, "chain %d not found", id)
	}
	return &c, nil
}

func (m *Memory) ListChains(_ context.Context) ([]*chains.Chain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*chains.Chain, 0, len(m.chains))
	for id := range m.chains {
		c := m.chains[id]
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) AddFeatures(_ context.Context, keys []string) (int, error) {
	return addKeys(&m.mu, m.features, keys), nil
}

func (m *Memory) ListFeatures(_ context.Context) ([]string, error) {
	return listKeys(&m.mu, m.features), nil
}

func (m *Memory) AddWallets(_ context.Context, keys []string) (int, error) {
	return addKeys(&m.mu, m.wallets, keys), nil
}

func (m *Memory) ListWallets(_ context.Context) ([]string, error) {
	return listKeys(&m.mu, m.wallets), nil
}

func addKeys(mu *sync.RWMutex, set map[string]bool, keys []string) int {
	mu.Lock()
	defer mu.Unlock()
	added := 0
	for _, k := range keys {
		if !set[k] {
			set[k] = true
			added++
		}
	}
	return added
}

func listKeys(mu *sync.RWMutex, set map[string]bool) []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Memory) UpsertSafeApp(_ context.Context, app *chains.SafeApp) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.apps[app.URL]
	m.apps[app.URL] = *app
	return !exists, nil
}

func (m *Memory) ListSafeApps(_ context.Context) ([]*chains.SafeApp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*chains.SafeApp, 0, len(m.apps))
	for url := range m.apps {
		a := m.apps[url]
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}

func (m *Memory) SaveReport(_ context.Context, r *audit.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = *r
	return nil
}

func (m *Memory) GetReport(_ context.Context, id string) (*audit.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeReportNotFound, "report %s not found", id)
	}
	return &r, nil
}

func (m *Memory) Close(context.Context) error { return nil }
