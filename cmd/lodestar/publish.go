package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lodestar-hq/lodestar/internal/canonical"
	"github.com/lodestar-hq/lodestar/internal/types"
)

var (
	publishBody   string
	publishLabels []string
	publishLink   string
)

var publishCmd = &cobra.Command{
	Use:   "publish <canonical-id> <title...>",
	Short: "Create an external issue carrying a canonical id",
	Long: `Create a new issue in the external repository with the canonical id
embedded in both the title and the body, so later runs can resolve it.

Resolution happens first: if an issue already carries the canonical id,
nothing is created and the existing issue is printed instead.

Example:
  lodestar publish REQ-1042 Export deadlocks under load
  lodestar publish REQ-1042 Export deadlocks --link ls-101 --label mirror`,
	Args: cobra.MinimumNArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()

		if err := requireRepo(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		id := args[0]
		title := strings.Join(args[1:], " ")

		client, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Resolve first so a retried publish never creates a duplicate.
		resolver := canonical.NewResolver(client, logger)
		match, err := resolver.Resolve(ctx, cfg.GitHub.Owner, cfg.GitHub.Repo, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		if match.Mode == types.MatchFound {
			fmt.Printf("%s %s already exists as %s/%s#%d, nothing created\n",
				yellow("○"), cyan(id), cfg.GitHub.Owner, cfg.GitHub.Repo, match.IssueNumber)
			if match.IssueURL != "" {
				fmt.Printf("  %s\n", match.IssueURL)
			}
			linkPublished(ctx, match.IssueNumber)
			return
		}

		ref, url, err := client.CreateIssue(ctx, cfg.GitHub.Owner, cfg.GitHub.Repo,
			canonical.TitleWithMarker(id, title),
			canonical.BodyWithMarker(id, publishBody),
			publishLabels)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create external issue: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Created %s as %s\n", green("✓"), cyan(id), ref.String())
		if url != "" {
			fmt.Printf("  %s\n", url)
		}
		linkPublished(ctx, ref.Number)
	},
}

// linkPublished attaches the published external issue to a tracked
// issue when --link was given.
func linkPublished(ctx context.Context, number int) {
	if publishLink == "" {
		return
	}

	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: issue published but link failed: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.LinkExternalIssue(ctx, publishLink, cfg.GitHub.Owner, cfg.GitHub.Repo, number); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: issue published but link failed: %v\n", err)
		return
	}
	fmt.Printf("  Linked %s → %s/%s#%d\n", publishLink, cfg.GitHub.Owner, cfg.GitHub.Repo, number)
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&publishBody, "body", "", "Issue body text")
	publishCmd.Flags().StringSliceVar(&publishLabels, "label", nil, "Labels to apply (repeatable)")
	publishCmd.Flags().StringVar(&publishLink, "link", "", "Tracked issue id to link to the published issue")
}
