package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/ss/internal/alias"
	"github.com/matsen/ss/internal/s2"
)

var paperFields string

var paperCmd = &cobra.Command{
	Use:   "paper <alias>",
	Short: "Show a paper's metadata",
	Long: `Show a paper's metadata as returned by Semantic Scholar.

The API response is written to stdout unchanged. Use --fields to request a
different field list (see the Semantic Scholar Graph API documentation).

Examples:
  ss paper bo4c
  ss paper ARXIV:2106.15042 --fields title,externalIds,openAccessPdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, paperCommand{Alias: args[0], Fields: paperFields})
	},
}

func init() {
	rootCmd.AddCommand(paperCmd)
	paperCmd.Flags().StringVar(&paperFields, "fields", s2.DefaultPaperFields, "Comma-separated fields to request")
}

func (a *app) paper(ctx context.Context, c paperCommand) error {
	paperID, err := a.resolvePaper(c.Alias)
	if err != nil {
		return err
	}

	body, err := a.client.GetPaperRaw(ctx, paperID, c.Fields)
	if err != nil {
		return fmt.Errorf("fetching paper: %w", err)
	}

	// Field lists without paperId still pass through; there is just nothing
	// to remember.
	var p s2.Paper
	decoded := json.Unmarshal(body, &p) == nil
	if decoded && p.PaperID != "" {
		m := make(alias.Mapping)
		alias.AddPaper(m, p)
		if _, err := a.store.Merge(m); err != nil {
			return fmt.Errorf("updating alias store: %w", err)
		}
	}

	if a.human && decoded {
		a.printPaperHuman(p)
		return nil
	}
	_, err = a.stdout.Write(body)
	return err
}

func (a *app) printPaperHuman(p s2.Paper) {
	if p.PaperID != "" {
		fmt.Fprintf(a.stdout, "[%s] %s\n", alias.ShortID(p.PaperID), p.Title)
	} else {
		fmt.Fprintln(a.stdout, p.Title)
	}
	if p.Year != 0 {
		fmt.Fprintf(a.stdout, "Year:     %d\n", p.Year)
	}
	if len(p.Authors) > 0 {
		fmt.Fprintf(a.stdout, "Authors:  %s\n", wrapText(authorsString(p.Authors, MaxListedAuthors), TextWrapWidth, "          "))
	}
	if p.Venue != "" {
		fmt.Fprintf(a.stdout, "Venue:    %s\n", p.Venue)
	}
	if p.PaperID != "" {
		fmt.Fprintf(a.stdout, "ID:       %s\n", p.PaperID)
	}
	if p.CitationStyles != nil {
		if key := s2.BibTeXKey(p.CitationStyles.BibTeX); key != "" {
			fmt.Fprintf(a.stdout, "Cite key: %s\n", key)
		}
	}
	if p.Abstract != "" {
		fmt.Fprintf(a.stdout, "\n%s\n", wrapText(p.Abstract, TextWrapWidth, ""))
	}
}
