// Package main provides the ss CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verbose enables debug logging on stderr
var verbose bool

const banner = "ss: a Semantic Scholar CLI"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ss",
	Short: "Semantic Scholar command-line client",
	Long: `ss is a command-line client for the Semantic Scholar Academic Graph API.

Search for papers, list citations, look up an author's papers, and download
open-access PDFs. Every paper and author seen in a response is remembered
under short aliases (ID prefixes, names, surnames, citation keys), so later
commands can refer to it tersely:

  ss search "variational phylogenetics"
  ss citations bo4c
  ss author Matsen
  ss dl bo4c

Commands output JSON by default. Use --human for human-readable output.

Environment Variables:
  S2_API_KEY     Semantic Scholar API key (optional; also read from .env)
  SS_ALIAS_PATH  Override the alias store location
  SS_LEDGER_PATH Override the download ledger location`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), banner)
		fmt.Fprintln(cmd.OutOrStdout())
		_ = cmd.Help()
	},
}

func init() {
	// Load .env file if present (for S2_API_KEY)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and alias store activity to stderr")
	rootCmd.Version = Version
}
