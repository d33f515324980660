package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lodestar-hq/lodestar/internal/types"
)

var trackCmd = &cobra.Command{
	Use:   "track <id> <title...>",
	Short: "Start tracking a delivery issue",
	Long: `Create a tracked issue in the internal store. The issue starts
unlinked; use "lodestar link" to attach the external issue it mirrors.

Example:
  lodestar track ls-101 Fix the export deadlock`,
	Args: cobra.MinimumNArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		issue := &types.TrackedIssue{
			ID:    args[0],
			Title: strings.Join(args[1:], " "),
		}
		if err := store.CreateTrackedIssue(ctx, issue); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Tracking %s: %s\n", green("✓"), issue.ID, issue.Title)
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
}
