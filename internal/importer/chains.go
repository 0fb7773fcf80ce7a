package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/safemeridian/chaincfg/internal/chains"
)

// flexID decodes a chain ID that config files write as either a JSON number
// or a string.
type flexID struct {
	value int64
}

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chain id %s: %w", string(b), err)
	}
	f.value = v
	return nil
}

// rpcEntry decodes an RPC endpoint that config files write as either a bare
// URL string or an object with value and authentication.
type rpcEntry struct {
	Value          string `json:"value"`
	Authentication string `json:"authentication"`
}

func (r *rpcEntry) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		r.Value = s
		return nil
	}
	type plain rpcEntry
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = rpcEntry(p)
	return nil
}

type chainEntry struct {
	ChainID     flexID `json:"chainId"`
	ChainName   string `json:"chainName"`
	ShortName   string `json:"shortName"`
	Description string `json:"description"`
	L2          bool   `json:"l2"`
	IsTestnet   bool   `json:"isTestnet"`

	RpcURI         rpcEntry  `json:"rpcUri"`
	SafeAppsRpcURI *rpcEntry `json:"safeAppsRpcUri"`
	PublicRpcURI   *rpcEntry `json:"publicRpcUri"`

	TransactionService string `json:"transactionService"`

	BlockExplorerURI         string `json:"blockExplorerUri"`
	BlockExplorerURITemplate *struct {
		Address string `json:"address"`
		TxHash  string `json:"txHash"`
		API     string `json:"api"`
	} `json:"blockExplorerUriTemplate"`

	NativeCurrency struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
		LogoURI  string `json:"logoUri"`
	} `json:"nativeCurrency"`

	Theme *struct {
		TextColor       string `json:"textColor"`
		BackgroundColor string `json:"backgroundColor"`
	} `json:"theme"`

	EnsRegistryAddress           string `json:"ensRegistryAddress"`
	RecommendedMasterCopyVersion string `json:"recommendedMasterCopyVersion"`
	ChainLogoURI                 string `json:"chainLogoUri"`

	// Pointer so an absent key (default features apply) is distinguishable
	// from an explicit empty list (chain has no features).
	Features *[]string `json:"features"`
}

func (i *Importer) importChains(ctx context.Context, base string, chainIDs []int64, sum *Summary) error {
	var entries []chainEntry
	if err := i.loadJSON(ctx, joinPath(base, chainsFile), &entries); err != nil {
		return err
	}

	var selected []chainEntry
	for _, e := range entries {
		if slices.Contains(chainIDs, e.ChainID.value) {
			selected = append(selected, e)
		}
	}
	if len(selected) == 0 {
		i.logger.Warn("no chains found with the configured chain ids")
		return nil
	}

	for _, e := range selected {
		c, err := i.buildChain(e)
		if err != nil {
			i.logger.Warn("skipping chain", "id", e.ChainID.value, "err", err)
			continue
		}

		i.fetchChainImages(ctx, base, c, e)

		created, err := i.store.UpsertChain(ctx, c)
		if err != nil {
			return err
		}
		if created {
			sum.ChainsCreated++
			i.logger.Info("created chain", "name", c.Name, "id", c.ID)
		} else {
			sum.ChainsUpdated++
			i.logger.Info("updated chain", "name", c.Name, "id", c.ID)
		}
	}

	// Default wallets become part of the global wallet set too.
	if _, err := i.store.AddWallets(ctx, defaultWallets); err != nil {
		return err
	}
	return nil
}

func (i *Importer) buildChain(e chainEntry) (*chains.Chain, error) {
	explorer, explorerURL, err := resolveExplorer(e)
	if err != nil {
		return nil, err
	}

	c := &chains.Chain{
		ID:          e.ChainID.value,
		Name:        e.ChainName,
		ShortName:   e.ShortName,
		Description: e.Description,
		L2:          e.L2,
		IsTestnet:   e.IsTestnet,

		Rpc:         toEndpoint(&e.RpcURI, e.RpcURI.Value),
		SafeAppsRpc: toEndpoint(e.SafeAppsRpcURI, e.RpcURI.Value),
		PublicRpc:   toEndpoint(e.PublicRpcURI, e.RpcURI.Value),

		TransactionServiceURI:    e.TransactionService,
		VpcTransactionServiceURI: e.TransactionService,

		BlockExplorerURL: explorerURL,
		BlockExplorer:    explorer,

		Currency: chains.Currency{
			Name:     e.NativeCurrency.Name,
			Symbol:   e.NativeCurrency.Symbol,
			Decimals: e.NativeCurrency.Decimals,
		},

		EnsRegistryAddress:           e.EnsRegistryAddress,
		RecommendedMasterCopyVersion: e.RecommendedMasterCopyVersion,

		Theme:    chains.Theme{TextColor: "#ffffff", BackgroundColor: "#000000"},
		Wallets:  slices.Clone(defaultWallets),
		Features: slices.Clone(defaultFeatures),
	}

	if c.RecommendedMasterCopyVersion == "" {
		c.RecommendedMasterCopyVersion = "1.3.0"
	}
	if e.Theme != nil {
		if e.Theme.TextColor != "" {
			c.Theme.TextColor = e.Theme.TextColor
		}
		if e.Theme.BackgroundColor != "" {
			c.Theme.BackgroundColor = e.Theme.BackgroundColor
		}
	}
	if e.Features != nil {
		c.Features = slices.Clone(*e.Features)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// resolveExplorer prefers explicit URI templates, falling back to deriving
// them from a bare explorer URL. A chain without either is rejected.
func resolveExplorer(e chainEntry) (chains.BlockExplorerTemplates, string, error) {
	if t := e.BlockExplorerURITemplate; t != nil {
		return chains.BlockExplorerTemplates{Address: t.Address, TxHash: t.TxHash, API: t.API}, e.BlockExplorerURI, nil
	}
	if e.BlockExplorerURI != "" {
		base := strings.TrimRight(e.BlockExplorerURI, "/")
		return chains.DeriveExplorerTemplates(base), base, nil
	}
	return chains.BlockExplorerTemplates{}, "", fmt.Errorf("no block explorer configured")
}

// toEndpoint converts an optional RPC entry, falling back to the chain's
// main RPC URL when the entry is absent or empty.
func toEndpoint(e *rpcEntry, fallback string) chains.RpcEndpoint {
	if e == nil || e.Value == "" {
		return chains.RpcEndpoint{Authentication: chains.AuthNone, Value: fallback}
	}
	return chains.RpcEndpoint{
		Authentication: chains.ParseRpcAuthentication(e.Authentication),
		Value:          e.Value,
	}
}

// fetchChainImages downloads the chain and currency logos when present.
// Download failures only produce warnings.
func (i *Importer) fetchChainImages(ctx context.Context, base string, c *chains.Chain, e chainEntry) {
	if e.ChainLogoURI != "" {
		name := fmt.Sprintf("chain_logo_%d.png", c.ID)
		if path, err := i.downloadImage(ctx, joinPath(base, e.ChainLogoURI), name); err != nil {
			i.logger.Warn("failed to download chain logo", "chain", c.Name, "err", err)
		} else if path != "" {
			c.ChainLogoURI = path
		}
	}
	if e.NativeCurrency.LogoURI != "" {
		name := fmt.Sprintf("currency_logo_%d.png", c.ID)
		if path, err := i.downloadImage(ctx, joinPath(base, e.NativeCurrency.LogoURI), name); err != nil {
			i.logger.Warn("failed to download currency logo", "chain", c.Name, "err", err)
		} else if path != "" {
			c.Currency.LogoURI = path
		}
	}
}
