package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for ghsearch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ghsearch",
		Short: "Search GitHub repositories, issues and wikis through a proxy",
		Long: `ghsearch queries the GitHub web search for one result category and prints
the matching links as JSON or CSV.

Every request of a search goes through one proxy picked at random from the
configured list. Repository results are enriched with the owner and the
language breakdown read from each repository page.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. Failures are logged and end the process with
// a non-zero status; no result payload is written.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("ghsearch failed", "err", err)
		os.Exit(1)
	}
}
