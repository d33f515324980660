package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lodestar-hq/lodestar/internal/types"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the sync run ledger",
	Long:  `Display recent sync runs from the append-only ledger, newest first.`,
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()

		store, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		runs, err := store.ListSyncRuns(ctx, runsLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(runs) == 0 {
			fmt.Printf("%s\n", gray("No sync runs recorded yet"))
			return
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		for _, run := range runs {
			statusText := yellow(string(run.Status))
			switch run.Status {
			case types.RunSuccess:
				statusText = green(string(run.Status))
			case types.RunFailed:
				statusText = red(string(run.Status))
			}

			fmt.Printf("%s  %s  found=%d recorded=%d  %s\n",
				run.StartedAt.Local().Format(time.RFC3339),
				statusText, run.TotalCount, run.UpsertedCount,
				gray(run.RunID))
			if run.Error != "" {
				fmt.Printf("  %s %s\n", red("!"), run.Error)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to show")
}
