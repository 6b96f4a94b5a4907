package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matsen/ss/internal/storage"
)

var downloadsLimit int

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "List recent downloads",
	Long: `List PDFs saved by "ss dl", newest first.

Examples:
  ss downloads
  ss downloads -n 5 --human`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, downloadsCommand{Limit: downloadsLimit})
	},
}

func init() {
	rootCmd.AddCommand(downloadsCmd)
	downloadsCmd.Flags().IntVarP(&downloadsLimit, "limit", "n", 20, "Maximum entries (0 for all)")
}

// DownloadsResult is the JSON output of the downloads command.
type DownloadsResult struct {
	Downloads []storage.Download `json:"downloads"`
	Total     int                `json:"total"`
}

func (a *app) downloads(ctx context.Context, c downloadsCommand) error {
	ledger, err := a.openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	recent, err := ledger.Recent(ctx, c.Limit)
	if err != nil {
		return err
	}
	total, err := ledger.Count(ctx)
	if err != nil {
		return err
	}

	if !a.human {
		return writeJSON(a.stdout, DownloadsResult{Downloads: recent, Total: total})
	}

	if len(recent) == 0 {
		fmt.Fprintln(a.stdout, "No downloads recorded.")
		return nil
	}
	for _, d := range recent {
		fmt.Fprintf(a.stdout, "%s  %s (%s, %d pages)\n", humanize.Time(d.DownloadedAt), d.CiteKey, humanize.Bytes(uint64(d.Bytes)), d.Pages)
		fmt.Fprintf(a.stdout, "    %s\n", d.Path)
	}
	if total > len(recent) {
		fmt.Fprintf(a.stdout, "\nShowing %d of %s downloads.\n", len(recent), humanize.Comma(int64(total)))
	}
	return nil
}
