package chains

import (
	"regexp"
	"strings"
)

var schemeRE = regexp.MustCompile(`^https?://`)

// DeriveExplorerTemplates builds block explorer URI templates from a plain
// explorer base URL, matching the etherscan-style layout most explorers use.
// The address and txHash placeholders use double braces since clients expand
// them, while the api template's single-brace placeholders are filled by the
// services themselves.
func DeriveExplorerTemplates(explorerURL string) BlockExplorerTemplates {
	base := strings.TrimRight(explorerURL, "/")
	return BlockExplorerTemplates{
		Address: base + "/address/{{address}}",
		TxHash:  base + "/tx/{{txHash}}",
		API:     schemeRE.ReplaceAllString(base, "https://api.") + "/api?module={module}&action={action}&address={address}&apiKey={apiKey}",
	}
}
