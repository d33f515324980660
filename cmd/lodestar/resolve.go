package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lodestar-hq/lodestar/internal/canonical"
	"github.com/lodestar-hq/lodestar/internal/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <canonical-id>",
	Short: "Resolve a canonical id against the external tracker",
	Long: `Search the configured external repository for an issue carrying the
canonical id, either as a "Canonical-ID:" body line or a "[CID:...]"
title marker. The body marker wins when both are present.

Use this before creating an external issue to avoid duplicates.

Example:
  lodestar resolve REQ-1042`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()

		if err := requireRepo(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		client, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		resolver := canonical.NewResolver(client, logger)
		match, err := resolver.Resolve(ctx, cfg.GitHub.Owner, cfg.GitHub.Repo, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		if match.Mode == types.MatchNotFound {
			fmt.Printf("%s No external issue carries %s\n", yellow("○"), cyan(args[0]))
			return
		}

		fmt.Printf("%s %s is %s/%s#%d (matched by %s)\n", green("✓"), cyan(args[0]),
			cfg.GitHub.Owner, cfg.GitHub.Repo, match.IssueNumber, match.MatchedBy)
		if match.IssueURL != "" {
			fmt.Printf("  %s\n", match.IssueURL)
		}
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
