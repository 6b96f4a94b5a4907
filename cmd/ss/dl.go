package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/ss/internal/alias"
	"github.com/matsen/ss/internal/fetch"
	"github.com/matsen/ss/internal/s2"
	"github.com/matsen/ss/internal/storage"
)

var (
	dlURLOnly bool
	dlStdout  bool
	dlOutDir  string
	dlForce   bool
)

var dlCmd = &cobra.Command{
	Use:   "dl <alias>",
	Short: "Download a paper's PDF",
	Long: `Download a paper's PDF.

The open-access PDF link is used when Semantic Scholar flags the paper as
open access; otherwise the arXiv copy is fetched. The file is saved as <outdir>/<citekey>.pdf,
where outdir comes from --outdir, then the outdir config key, then ~/papers.
The citation key becomes an alias for the paper.

Examples:
  ss dl bo4c
  ss dl bo4c --url
  ss dl bo4c --stdout > paper.pdf
  ss dl ARXIV:2106.15042 --outdir ~/reading`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := dlToFile
		switch {
		case dlURLOnly:
			mode = dlPrintURL
		case dlStdout:
			mode = dlToStdout
		}
		return run(cmd, dlCommand{Alias: args[0], Mode: mode, OutDir: dlOutDir, Force: dlForce})
	},
}

func init() {
	rootCmd.AddCommand(dlCmd)
	dlCmd.Flags().BoolVar(&dlURLOnly, "url", false, "Print the download URL instead of downloading")
	dlCmd.Flags().BoolVar(&dlStdout, "stdout", false, "Write the PDF to stdout")
	dlCmd.Flags().StringVar(&dlOutDir, "outdir", "", "Directory to save the PDF in")
	dlCmd.Flags().BoolVar(&dlForce, "force", false, "Download even if the file already exists")
	dlCmd.MarkFlagsMutuallyExclusive("url", "stdout", "outdir")
	dlCmd.MarkFlagsMutuallyExclusive("url", "force")
	dlCmd.MarkFlagsMutuallyExclusive("stdout", "force")
}

// DownloadResult is the JSON output of a file download.
type DownloadResult struct {
	Path              string `json:"path"`
	CiteKey           string `json:"cite_key"`
	PaperID           string `json:"paper_id"`
	URL               string `json:"url,omitempty"`
	Source            string `json:"source,omitempty"`
	Bytes             int64  `json:"bytes,omitempty"`
	Pages             int    `json:"pages,omitempty"`
	AlreadyDownloaded bool   `json:"already_downloaded"`
}

func (a *app) download(ctx context.Context, c dlCommand) error {
	paperID, err := a.resolvePaper(c.Alias)
	if err != nil {
		return err
	}

	paper, err := a.client.GetPaper(ctx, paperID, s2.DownloadFields)
	if err != nil {
		return fmt.Errorf("fetching paper: %w", err)
	}

	citeKey := s2.CiteKey(*paper)
	m := make(alias.Mapping)
	alias.AddPaper(m, *paper)
	m[citeKey] = paper.PaperID
	if _, err := a.store.Merge(m); err != nil {
		return fmt.Errorf("updating alias store: %w", err)
	}

	result := DownloadResult{CiteKey: citeKey, PaperID: paper.PaperID}
	if c.Mode == dlToFile {
		result.Path = fetch.Path(a.cfg.ResolvedOutDir(c.OutDir), citeKey)
		if fetch.Exists(result.Path) && !c.Force {
			fmt.Fprintln(a.stderr, "Already downloaded.")
			result.AlreadyDownloaded = true
			return a.printDownload(result)
		}
	}

	link := s2.ResolveDownloadLink(*paper)
	if err := link.Err(); err != nil {
		return fmt.Errorf("%w for %s", err, c.Alias)
	}
	a.logger.Debug("download link",
		zap.String("paper", paper.PaperID),
		zap.Stringer("kind", link.Kind),
		zap.String("url", link.URL))

	if c.Mode == dlPrintURL {
		_, err := fmt.Fprintln(a.stdout, link.URL)
		return err
	}

	doc, err := a.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", citeKey, err)
	}
	if doc.ParseErr != nil {
		fmt.Fprintf(a.stderr, "warning: %s: %v\n", citeKey, doc.ParseErr)
	}

	if c.Mode == dlToStdout {
		_, err := a.stdout.Write(doc.Data)
		return err
	}

	if err := fetch.WriteFile(result.Path, doc.Data); err != nil {
		return err
	}
	result.URL = link.URL
	result.Source = link.Kind.String()
	result.Bytes = int64(len(doc.Data))
	result.Pages = doc.Pages

	if err := a.recordDownload(ctx, result); err != nil {
		// The file is on disk; a ledger failure does not undo the download.
		a.logger.Warn("recording download", zap.Error(err))
		fmt.Fprintf(a.stderr, "warning: download not recorded: %v\n", err)
	}

	return a.printDownload(result)
}

func (a *app) recordDownload(ctx context.Context, r DownloadResult) error {
	ledger, err := a.openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	return ledger.Record(ctx, storage.Download{
		CiteKey:      r.CiteKey,
		PaperID:      r.PaperID,
		URL:          r.URL,
		LinkKind:     r.Source,
		Path:         r.Path,
		Bytes:        r.Bytes,
		Pages:        r.Pages,
		DownloadedAt: time.Now(),
	})
}

func (a *app) printDownload(r DownloadResult) error {
	if !a.human {
		return writeJSON(a.stdout, r)
	}

	fmt.Fprintln(a.stdout, r.Path)
	if !r.AlreadyDownloaded {
		pages := "page count unknown"
		if r.Pages > 0 {
			pages = fmt.Sprintf("%d pages", r.Pages)
		}
		fmt.Fprintf(a.stdout, "  %s, %s, from %s\n", humanize.Bytes(uint64(r.Bytes)), pages, r.Source)
	}
	return nil
}
