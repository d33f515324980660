package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lodestar-hq/lodestar/internal/storage"
	"github.com/lodestar-hq/lodestar/internal/types"
)

var statusDiscovered bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mirror status for tracked issues",
	Long: `Display the persisted mirror state for every tracked issue, as
written by the last sync pass. Use --discovered to list external
issues found by bulk discovery instead.`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()

		store, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		if statusDiscovered {
			printDiscovered(ctx, store)
			return
		}

		issues, err := store.ListTrackedIssues(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		states, err := store.ListSyncStates(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		byID := make(map[string]*types.IssueSyncState, len(states))
		for _, st := range states {
			byID[st.IssueID] = st
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(issues) == 0 {
			fmt.Printf("%s\n", gray("No tracked issues"))
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		for _, issue := range issues {
			fmt.Printf("%s  %s\n", cyan(issue.ID), issue.Title)
			if !issue.Linked() {
				fmt.Printf("  %s\n", gray("not linked"))
				continue
			}
			fmt.Printf("  linked to %s\n", issue.ExternalRef().String())

			st, ok := byID[issue.ID]
			if !ok {
				fmt.Printf("  %s\n", gray("never synced"))
				continue
			}

			fmt.Printf("  mirror: %s", colorStatus(st.MirrorStatus))
			if st.StatusSource != "" {
				fmt.Printf(" (via %s)", st.StatusSource)
			}
			fmt.Printf("  synced %s\n", st.LastSyncAt.Local().Format(time.RFC3339))
			if st.SyncError != nil {
				fmt.Printf("  %s %s: %s\n", red("!"), st.SyncError.Code, st.SyncError.Message)
			}
		}
	},
}

func printDiscovered(ctx context.Context, store storage.Storage) {
	found, err := store.ListDiscoveredIssues(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	gray := color.New(color.FgHiBlack).SprintFunc()
	if len(found) == 0 {
		fmt.Printf("%s\n", gray("No discovered issues"))
		return
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	for _, d := range found {
		fmt.Printf("%s  %s  %s\n",
			cyan(fmt.Sprintf("%s#%d", d.Repo, d.Number)),
			d.Title,
			gray("first seen "+d.FirstSeenAt.Local().Format(time.RFC3339)))
	}
}

func colorStatus(status types.MirrorStatus) string {
	switch status {
	case types.MirrorDone, types.MirrorMergeReady:
		return color.New(color.FgGreen).Sprint(string(status))
	case types.MirrorInProgress:
		return color.New(color.FgCyan).Sprint(string(status))
	case types.MirrorHold, types.MirrorUnknown:
		return color.New(color.FgYellow).Sprint(string(status))
	case types.MirrorError:
		return color.New(color.FgRed).Sprint(string(status))
	default:
		return string(status)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusDiscovered, "discovered", false, "List discovered external issues instead")
}
