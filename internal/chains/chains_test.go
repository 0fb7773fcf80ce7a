package chains

import (
	"encoding/json"
	"testing"
)

func sampleChain() *Chain {
	return &Chain{
		ID:                    100,
		Name:                  "Gnosis Chain",
		ShortName:             "gno",
		Rpc:                   RpcEndpoint{Authentication: AuthNone, Value: "https://rpc.gnosischain.com"},
		TransactionServiceURI: "https://safe-transaction-gnosis-chain.safe.global",
		BlockExplorerURL:      "https://gnosisscan.io",
		Currency:              Currency{Name: "xDai", Symbol: "XDAI", Decimals: 18},
		Theme:                 Theme{TextColor: "#ffffff", BackgroundColor: "#48A9A6"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Chain)
		wantErr bool
	}{
		{"valid", func(*Chain) {}, false},
		{"zero id", func(c *Chain) { c.ID = 0 }, true},
		{"negative id", func(c *Chain) { c.ID = -5 }, true},
		{"no name", func(c *Chain) { c.Name = "" }, true},
		{"no rpc", func(c *Chain) { c.Rpc.Value = "" }, true},
		{"bad rpc scheme", func(c *Chain) { c.Rpc.Value = "ftp://example.com" }, true},
		{"decimals out of range", func(c *Chain) { c.Currency.Decimals = 77 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sampleChain()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAsView(t *testing.T) {
	v := sampleChain().AsView()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["chain_id"] != "100" {
		t.Errorf("chain_id = %v, want string \"100\"", got["chain_id"])
	}
	if got["chain_name"] != "Gnosis Chain" {
		t.Errorf("chain_name = %v", got["chain_name"])
	}
	currency, ok := got["native_currency"].(map[string]any)
	if !ok || currency["symbol"] != "XDAI" || currency["decimals"] != float64(18) {
		t.Errorf("native_currency = %v", got["native_currency"])
	}
	theme, ok := got["theme"].(map[string]any)
	if !ok || theme["text_color"] != "#ffffff" || theme["background_color"] != "#48A9A6" {
		t.Errorf("theme = %v", got["theme"])
	}
}

func TestAsViewNullTransactionService(t *testing.T) {
	c := sampleChain()
	c.TransactionServiceURI = ""
	data, err := json.Marshal(c.AsView())
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if v, present := got["transaction_service"]; !present || v != nil {
		t.Errorf("transaction_service = %v, want explicit null", v)
	}
}

func TestParseRpcAuthentication(t *testing.T) {
	tests := []struct {
		in   string
		want RpcAuthentication
	}{
		{"", AuthNone},
		{"NO_AUTHENTICATION", AuthNone},
		{"API_KEY_PATH", AuthAPIKeyPath},
		{"something-else", AuthUnknown},
	}
	for _, tt := range tests {
		if got := ParseRpcAuthentication(tt.in); got != tt.want {
			t.Errorf("ParseRpcAuthentication(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDeriveExplorerTemplates(t *testing.T) {
	got := DeriveExplorerTemplates("https://gnosisscan.io/")
	if got.Address != "https://gnosisscan.io/address/{{address}}" {
		t.Errorf("Address = %q", got.Address)
	}
	if got.TxHash != "https://gnosisscan.io/tx/{{txHash}}" {
		t.Errorf("TxHash = %q", got.TxHash)
	}
	want := "https://api.gnosisscan.io/api?module={module}&action={action}&address={address}&apiKey={apiKey}"
	if got.API != want {
		t.Errorf("API = %q, want %q", got.API, want)
	}
}
