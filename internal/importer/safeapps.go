package importer

import (
	"context"
	"fmt"
	"slices"

	"github.com/safemeridian/chaincfg/internal/chains"
)

type safeAppEntry struct {
	URL         string   `json:"url"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ChainIDs    []flexID `json:"chainIds"`
	IconURL     string   `json:"iconUrl"`
	Tags        []string `json:"tags"`
	Features    []string `json:"features"`
}

func (i *Importer) importSafeApps(ctx context.Context, base string, defaultChainIDs []int64, sum *Summary) error {
	var entries []safeAppEntry
	if err := i.loadJSON(ctx, joinPath(base, safeAppsFile), &entries); err != nil {
		return err
	}

	for _, e := range entries {
		app := &chains.SafeApp{
			URL:         e.URL,
			Name:        e.Name,
			Description: e.Description,
			ChainIDs:    appChainIDs(e, defaultChainIDs),
			Listed:      true,
			Tags:        slices.Clone(e.Tags),
			Features:    slices.Clone(e.Features),
		}
		if err := app.Validate(); err != nil {
			i.logger.Warn("skipping safe app", "url", e.URL, "err", err)
			continue
		}

		if e.IconURL != "" {
			name := fmt.Sprintf("safe_app_%s.png", sanitizeFileName(e.Name))
			if path, err := i.downloadImage(ctx, joinPath(base, e.IconURL), name); err != nil {
				i.logger.Warn("failed to download icon", "app", e.Name, "err", err)
			} else if path != "" {
				app.IconURL = path
			}
		}

		created, err := i.store.UpsertSafeApp(ctx, app)
		if err != nil {
			return err
		}
		if created {
			sum.AppsCreated++
		} else {
			sum.AppsUpdated++
		}
	}

	i.logger.Info("imported safe apps", "created", sum.AppsCreated, "updated", sum.AppsUpdated)
	return nil
}

// appChainIDs uses the app's own chain list when present, falling back to
// the chains selected for this import run.
func appChainIDs(e safeAppEntry, defaults []int64) []int64 {
	if len(e.ChainIDs) > 0 {
		out := make([]int64, len(e.ChainIDs))
		for i, id := range e.ChainIDs {
			out[i] = id.value
		}
		return out
	}
	return slices.Clone(defaults)
}

func sanitizeFileName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
