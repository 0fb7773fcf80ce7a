// Package chains defines the chain configuration model served by the API
// and populated by the importer.
package chains

import (
	"strconv"

	"github.com/safemeridian/chaincfg/pkg/errors"
)

// RpcAuthentication describes how clients must authenticate against an
// RPC endpoint.
type RpcAuthentication string

const (
	AuthAPIKeyPath RpcAuthentication = "API_KEY_PATH"
	AuthNone       RpcAuthentication = "NO_AUTHENTICATION"
	AuthUnknown    RpcAuthentication = "UNKNOWN"
)

// ParseRpcAuthentication maps a config value to an authentication mode,
// defaulting to AuthNone for the empty string and AuthUnknown otherwise.
func ParseRpcAuthentication(s string) RpcAuthentication {
	switch s {
	case "", string(AuthNone):
		return AuthNone
	case string(AuthAPIKeyPath):
		return AuthAPIKeyPath
	default:
		return AuthUnknown
	}
}

// RpcEndpoint is an RPC URL plus its authentication mode.
type RpcEndpoint struct {
	Authentication RpcAuthentication `bson:"authentication" json:"authentication"`
	Value          string            `bson:"value" json:"value"`
}

// Currency is the chain's native currency.
type Currency struct {
	Name     string `bson:"name" json:"name"`
	Symbol   string `bson:"symbol" json:"symbol"`
	Decimals int    `bson:"decimals" json:"decimals"`
	LogoURI  string `bson:"logo_uri,omitempty" json:"-"`
}

// Theme carries the display colors clients use for the chain badge.
type Theme struct {
	TextColor       string `bson:"text_color" json:"text_color"`
	BackgroundColor string `bson:"background_color" json:"background_color"`
}

// BlockExplorerTemplates are the URI templates clients expand to link
// addresses and transactions on the chain's block explorer.
type BlockExplorerTemplates struct {
	Address string `bson:"address" json:"address"`
	TxHash  string `bson:"tx_hash" json:"tx_hash"`
	API     string `bson:"api" json:"api"`
}

// Chain is the stored configuration for one EVM chain.
type Chain struct {
	ID          int64  `bson:"_id"`
	Name        string `bson:"name"`
	ShortName   string `bson:"short_name"`
	Description string `bson:"description"`
	L2          bool   `bson:"l2"`
	IsTestnet   bool   `bson:"is_testnet"`

	Rpc         RpcEndpoint `bson:"rpc"`
	SafeAppsRpc RpcEndpoint `bson:"safe_apps_rpc"`
	PublicRpc   RpcEndpoint `bson:"public_rpc"`

	TransactionServiceURI    string `bson:"transaction_service_uri"`
	VpcTransactionServiceURI string `bson:"vpc_transaction_service_uri"`

	BlockExplorerURL string                 `bson:"block_explorer_url"`
	BlockExplorer    BlockExplorerTemplates `bson:"block_explorer"`

	Currency Currency `bson:"currency"`
	Theme    Theme    `bson:"theme"`

	EnsRegistryAddress           string `bson:"ens_registry_address,omitempty"`
	RecommendedMasterCopyVersion string `bson:"recommended_master_copy_version"`
	ChainLogoURI                 string `bson:"chain_logo_uri,omitempty"`

	Features []string `bson:"features"`
	Wallets  []string `bson:"wallets"`
}

// Validate checks the invariants the importer and API rely on.
func (c *Chain) Validate() error {
	if c.ID <= 0 {
		return errors.New(errors.ErrCodeInvalidChain, "chain id must be positive, got %d", c.ID)
	}
	if c.Name == "" {
		return errors.New(errors.ErrCodeInvalidChain, "chain %d has no name", c.ID)
	}
	if c.Rpc.Value == "" {
		return errors.New(errors.ErrCodeInvalidChain, "chain %d has no rpc url", c.ID)
	}
	if err := errors.ValidateURL(c.Rpc.Value); err != nil {
		return err
	}
	if c.Currency.Decimals < 0 || c.Currency.Decimals > 36 {
		return errors.New(errors.ErrCodeInvalidChain, "chain %d currency decimals out of range: %d", c.ID, c.Currency.Decimals)
	}
	return nil
}

// View is the JSON shape served by the API. Chain IDs are serialized as
// strings since EIP-155 IDs exceed what JavaScript numbers can represent.
type View struct {
	ChainID            string       `json:"chain_id"`
	ChainName          string       `json:"chain_name"`
	RpcURL             string       `json:"rpc_url"`
	BlockExplorerURL   string       `json:"block_explorer_url"`
	NativeCurrency     CurrencyView `json:"native_currency"`
	TransactionService *string      `json:"transaction_service"`
	Theme              Theme        `json:"theme"`
}

// CurrencyView is the native currency as served by the API.
type CurrencyView struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// AsView converts a stored chain to its API representation.
// An empty transaction service URI is served as null.
func (c *Chain) AsView() View {
	v := View{
		ChainID:          strconv.FormatInt(c.ID, 10),
		ChainName:        c.Name,
		RpcURL:           c.Rpc.Value,
		BlockExplorerURL: c.BlockExplorerURL,
		NativeCurrency: CurrencyView{
			Name:     c.Currency.Name,
			Symbol:   c.Currency.Symbol,
			Decimals: c.Currency.Decimals,
		},
		Theme: c.Theme,
	}
	if c.TransactionServiceURI != "" {
		uri := c.TransactionServiceURI
		v.TransactionService = &uri
	}
	return v
}
