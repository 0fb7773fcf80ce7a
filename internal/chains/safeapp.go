package chains

import "github.com/safemeridian/chaincfg/pkg/errors"

// SafeApp is a listed application, keyed by URL. ChainIDs restricts it to
// specific chains; an empty list means the importer fills in its defaults.
type SafeApp struct {
	URL         string   `bson:"_id" json:"url"`
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description" json:"description"`
	ChainIDs    []int64  `bson:"chain_ids" json:"chain_ids"`
	Listed      bool     `bson:"listed" json:"listed"`
	IconURL     string   `bson:"icon_url,omitempty" json:"icon_url,omitempty"`
	Tags        []string `bson:"tags" json:"tags"`
	Features    []string `bson:"features" json:"features"`
}

// Validate checks the fields the importer relies on.
func (a *SafeApp) Validate() error {
	if a.URL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "safe app has no url")
	}
	if err := errors.ValidateURL(a.URL); err != nil {
		return err
	}
	if a.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "safe app %s has no name", a.URL)
	}
	return nil
}
