package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lodestar-hq/lodestar/internal/config"
	"github.com/lodestar-hq/lodestar/internal/githubext"
	"github.com/lodestar-hq/lodestar/internal/storage"
)

var (
	cfgFile string
	dbPath  string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lodestar",
	Short: "Track delivery issues and mirror their progress from GitHub",
	Long: `Lodestar is an internal control plane that tracks software-delivery
issues and mirrors their progress against an external GitHub repository.

The external tracker is the source of truth for mirror fields; lodestar
runs a deterministic batch sync pass that keeps internal state current,
resolves canonical identifiers to prevent duplicate issue creation, and
records an append-only ledger of every run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}

		if verbose {
			logger, err = zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
		} else {
			logger = zap.NewNop()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default: ./lodestar.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// openStore opens the tracked-issue store, creating the database and
// schema if needed.
func openStore(ctx context.Context) (storage.Storage, error) {
	store, err := storage.NewStorage(ctx, &storage.Config{Path: cfg.Database.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Database.Path, err)
	}
	return store, nil
}

// newClient builds the external tracker client from config.
func newClient() (*githubext.Client, error) {
	return githubext.New(&githubext.Config{
		Token:             cfg.GitHub.Token,
		BaseURL:           cfg.GitHub.BaseURL,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
		MaxTries:          cfg.GitHub.MaxTries,
	}, logger)
}

// requireRepo ensures the external repository scope is configured.
func requireRepo() error {
	if strings.TrimSpace(cfg.GitHub.Owner) == "" || strings.TrimSpace(cfg.GitHub.Repo) == "" {
		return fmt.Errorf("github.owner and github.repo must be configured (or set LODESTAR_GITHUB_OWNER / LODESTAR_GITHUB_REPO)")
	}
	return nil
}
