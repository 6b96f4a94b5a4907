package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var citationsLimit int

var citationsCmd = &cobra.Command{
	Use:   "citations <alias>",
	Short: "List papers that cite a paper",
	Long: `List papers that cite a paper (forward citation tracking).

The paper may be given by any remembered alias or by a prefixed external
ID such as DOI:10.1093/sysbio/syy032 or ARXIV:2106.15042.

Examples:
  ss citations bo4c
  ss citations DOI:10.1093/sysbio/syy032 -n 50 --human`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, citationsCommand{Alias: args[0], Limit: citationsLimit})
	},
}

func init() {
	rootCmd.AddCommand(citationsCmd)
	citationsCmd.Flags().IntVarP(&citationsLimit, "limit", "n", 0, "Maximum results (at most 100; 0 uses the API default)")
}

func (a *app) citations(ctx context.Context, c citationsCommand) error {
	paperID, err := a.resolvePaper(c.Alias)
	if err != nil {
		return err
	}

	papers, err := a.client.GetCitations(ctx, paperID, c.Limit)
	if err != nil {
		return fmt.Errorf("fetching citations: %w", err)
	}
	if err := a.remember(papers); err != nil {
		return err
	}
	return a.printPapers(papers)
}
