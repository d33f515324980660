package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lodestar-hq/lodestar/internal/sync"
	"github.com/lodestar-hq/lodestar/internal/types"
)

var syncQuery string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one mirror synchronization pass",
	Long: `Run one batch reconciliation pass:
1. Refresh mirror state for every tracked issue with a linked external
   issue, in a fixed deterministic order.
2. Run the bulk-discovery search and record snapshots of external
   issues not yet linked internally.
3. Write one ledger row for the invocation.

Per-issue fetch failures are isolated and recorded; they never abort
the run.

Example:
  lodestar sync
  lodestar sync --query "repo:acme/delivery label:mirror"`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()

		query := syncQuery
		if query == "" {
			query = cfg.Sync.SearchQuery
		}
		if strings.TrimSpace(query) == "" && cfg.GitHub.Owner != "" && cfg.GitHub.Repo != "" {
			query = fmt.Sprintf("repo:%s/%s is:issue", cfg.GitHub.Owner, cfg.GitHub.Repo)
		}

		store, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		client, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		tracked, err := store.ListTrackedIssues(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		orchestrator := sync.NewOrchestrator(client, store, logger, &sync.Config{
			SnapshotMaxBytes: cfg.Sync.SnapshotMaxBytes,
		})

		report, err := orchestrator.Run(ctx, tracked, query)
		if err != nil {
			if report != nil {
				printReport(report)
			}
			fmt.Fprintf(os.Stderr, "Error: sync run failed: %v\n", err)
			os.Exit(1)
		}

		printReport(report)
	},
}

func printReport(report *types.SyncReport) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Printf("\n%s Sync pass finished\n\n", green("✓"))
	fmt.Printf("  Attempted:    %d\n", report.Attempted)
	fmt.Printf("  Fetched:      %s\n", green(fmt.Sprintf("%d", report.FetchOK)))
	if report.FetchFailed > 0 {
		fmt.Printf("  Failed:       %s\n", red(fmt.Sprintf("%d", report.FetchFailed)))
	} else {
		fmt.Printf("  Failed:       %d\n", report.FetchFailed)
	}
	fmt.Printf("  Synced:       %d\n", report.Synced)
	fmt.Printf("  Discovered:   %s found, %s recorded\n",
		yellow(fmt.Sprintf("%d", report.TotalFound)),
		yellow(fmt.Sprintf("%d", report.Upserted)))
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncQuery, "query", "", "Discovery search query (defaults to config)")
}
