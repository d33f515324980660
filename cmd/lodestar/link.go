package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	linkOwner string
	linkRepo  string
)

var linkCmd = &cobra.Command{
	Use:   "link <id> <external-number>",
	Short: "Link a tracked issue to an external issue",
	Long: `Attach an external issue number to a tracked issue so the sync
pass mirrors its progress. The repository defaults to the configured
github.owner/github.repo scope.

Example:
  lodestar link ls-101 42
  lodestar link ls-101 42 --owner acme --repo delivery`,
	Args: cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()

		number, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: external issue number must be an integer: %v\n", err)
			os.Exit(1)
		}

		owner, repo := linkOwner, linkRepo
		if owner == "" {
			owner = cfg.GitHub.Owner
		}
		if repo == "" {
			repo = cfg.GitHub.Repo
		}
		if owner == "" || repo == "" {
			fmt.Fprintf(os.Stderr, "Error: repository scope required (--owner/--repo or config)\n")
			os.Exit(1)
		}

		store, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		if err := store.LinkExternalIssue(ctx, args[0], owner, repo, number); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Linked %s → %s/%s#%d\n", green("✓"), args[0], owner, repo, number)
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
	linkCmd.Flags().StringVar(&linkOwner, "owner", "", "External repository owner (defaults to config)")
	linkCmd.Flags().StringVar(&linkRepo, "repo", "", "External repository name (defaults to config)")
}
