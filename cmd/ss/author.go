package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/ss/internal/s2"
)

var authorFields string

var authorCmd = &cobra.Command{
	Use:   "author <alias>",
	Short: "List an author's papers",
	Long: `List an author's papers.

The author must already be known: any name token, full name, or ID prefix
seen in an earlier response works.

Examples:
  ss author Matsen
  ss author 1e2f --human`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, authorCommand{Alias: args[0], Fields: authorFields})
	},
}

func init() {
	rootCmd.AddCommand(authorCmd)
	authorCmd.Flags().StringVar(&authorFields, "fields", s2.DefaultAuthorFields, "Comma-separated fields to request")
}

func (a *app) author(ctx context.Context, c authorCommand) error {
	authorID, err := a.resolveAuthor(c.Alias)
	if err != nil {
		return err
	}

	details, err := a.client.GetAuthor(ctx, authorID, c.Fields)
	if err != nil {
		return fmt.Errorf("fetching author: %w", err)
	}
	if err := a.remember(details.Papers); err != nil {
		return err
	}

	if a.human && details.Name != "" {
		fmt.Fprintf(a.stdout, "Papers by %s:\n\n", details.Name)
	}
	return a.printPapers(details.Papers)
}
