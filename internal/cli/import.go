package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safemeridian/chaincfg/internal/config"
	"github.com/safemeridian/chaincfg/internal/importer"
)

// importCommand creates the "import" command loading default chain configs.
func (c *CLI) importCommand() *cobra.Command {
	var (
		configPath string
		mediaDir   string
		chainIDs   string
		features   bool
		wallets    bool
		safeApps   bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import default chain configurations into the store",
		Long: `Import loads chain configurations, features, wallets and safe apps from
a config source (an HTTP base URL or a local directory) and upserts them
into the store. Existing entries are updated in place, so the import is
safe to re-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flags override the config file.
			if chainIDs != "" {
				cfg.Importer.DefaultChainIDs = strings.Split(chainIDs, ",")
			}
			if cmd.Flags().Changed("features") {
				cfg.Importer.ImportFeatures = features
			}
			if cmd.Flags().Changed("wallets") {
				cfg.Importer.ImportWallets = wallets
			}
			if cmd.Flags().Changed("safe-apps") {
				cfg.Importer.ImportSafeApps = safeApps
			}

			st, err := openStore(cmd.Context(), cfg, c)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			opts := []importer.Option{importer.WithLogger(c.Logger)}
			if mediaDir != "" {
				opts = append(opts, importer.WithMediaDir(mediaDir))
			}

			prog := newProgress(c.Logger)
			summary, err := importer.New(st, opts...).Run(cmd.Context(), cfg.Importer)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			prog.done("Import finished")

			printSuccess("Imported default configuration")
			printDetail("chains: %d created, %d updated", summary.ChainsCreated, summary.ChainsUpdated)
			printDetail("safe apps: %d created, %d updated", summary.AppsCreated, summary.AppsUpdated)
			printDetail("features: %d, wallets: %d", summary.Features, summary.Wallets)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&mediaDir, "media-dir", "", "directory for downloaded chain logos and app icons")
	cmd.Flags().StringVar(&chainIDs, "chains", "", "comma-separated chain IDs to import, or ALL")
	cmd.Flags().BoolVar(&features, "features", false, "import the default feature set")
	cmd.Flags().BoolVar(&wallets, "wallets", false, "import the default wallet set")
	cmd.Flags().BoolVar(&safeApps, "safe-apps", false, "import the default safe apps")

	return cmd
}
