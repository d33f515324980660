package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the lodestar database in the current directory",
	Long: `Initialize the lodestar tracker by creating the database file and
schema at the configured path (default: .lodestar/lodestar.db).

Example:
  cd ~/myproject
  lodestar init
  lodestar init --db /var/lib/lodestar/issues.db`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()

		store, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		_ = store.Close() // Ignore close error during initialization

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized lodestar tracker\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(cfg.Database.Path))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("lodestar track <id> <title>   # Track an issue"))
		fmt.Printf("  %s\n", gray("lodestar link <id> <number>   # Link it to an external issue"))
		fmt.Printf("  %s\n", gray("lodestar sync                 # Run the mirror sync pass"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
