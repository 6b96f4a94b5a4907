package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/ss/internal/s2"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Semantic Scholar for papers",
	Long: `Search Semantic Scholar for papers by keyword relevance.

Every paper and author in the results is remembered, so the short IDs
printed here can be passed to other commands.

Examples:
  ss search "phylogenetic inference"
  ss search "variational bayes" -n 25 --human`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, searchCommand{Query: args[0], Limit: searchLimit})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", s2.DefaultSearchLimit, "Maximum results (at most 100)")
}

func (a *app) search(ctx context.Context, c searchCommand) error {
	papers, err := a.client.SearchPapers(ctx, c.Query, c.Limit)
	if err != nil {
		return fmt.Errorf("searching papers: %w", err)
	}
	if err := a.remember(papers); err != nil {
		return err
	}
	return a.printPapers(papers)
}
