package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/ss/internal/alias"
	"github.com/matsen/ss/internal/config"
	"github.com/matsen/ss/internal/fetch"
	"github.com/matsen/ss/internal/logging"
	"github.com/matsen/ss/internal/s2"
	"github.com/matsen/ss/internal/storage"
)

// command is one parsed invocation. Each subcommand has its own variant,
// and dispatch handles every variant.
type command interface {
	name() string
}

type searchCommand struct {
	Query string
	Limit int
}

type paperCommand struct {
	Alias  string
	Fields string
}

type authorCommand struct {
	Alias  string
	Fields string
}

type citationsCommand struct {
	Alias string
	Limit int
}

type idCommand struct {
	Alias string
}

// dlMode selects what dl does with the document.
type dlMode int

const (
	dlToFile dlMode = iota
	dlPrintURL
	dlToStdout
)

type dlCommand struct {
	Alias  string
	Mode   dlMode
	OutDir string
	Force  bool
}

type aliasesCommand struct {
	Prefix string
}

type downloadsCommand struct {
	Limit int
}

// configCommand shows all settings (no Key), reads one (Key), or writes one
// (Key, Value with Set).
type configCommand struct {
	Key   string
	Value string
	Set   bool
}

// errConfig marks failures that exit with ExitConfigError.
var errConfig = errors.New("config error")

func (searchCommand) name() string    { return "search" }
func (paperCommand) name() string     { return "paper" }
func (authorCommand) name() string    { return "author" }
func (citationsCommand) name() string { return "citations" }
func (idCommand) name() string        { return "id" }
func (dlCommand) name() string        { return "dl" }
func (aliasesCommand) name() string   { return "aliases" }
func (downloadsCommand) name() string { return "downloads" }
func (configCommand) name() string    { return "config" }

// app holds the collaborators a command needs.
type app struct {
	cfg        *config.Config
	store      *alias.Store
	client     *s2.Client
	fetcher    *fetch.Fetcher
	ledgerPath string
	logger     *zap.Logger
	stdout     io.Writer
	stderr     io.Writer
	human      bool
}

// newApp builds the app from the user config and global flags.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	opts := []s2.ClientOption{s2.WithLogger(logger)}
	if key := cfg.ResolvedAPIKey(); key != "" {
		opts = append(opts, s2.WithAPIKey(key))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, s2.WithBaseURL(cfg.BaseURL))
	}

	aliasPath := cfg.ResolvedAliasPath()
	logger.Debug("using alias store", zap.String("path", aliasPath))

	return &app{
		cfg:        cfg,
		store:      alias.Open(aliasPath, alias.WithLogger(logger)),
		client:     s2.NewClient(opts...),
		fetcher:    fetch.New(fetch.WithLogger(logger)),
		ledgerPath: cfg.ResolvedLedgerPath(),
		logger:     logger,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		human:      humanOutput,
	}, nil
}

// dispatch runs a parsed command.
func (a *app) dispatch(ctx context.Context, c command) error {
	a.logger.Debug("dispatch", zap.String("command", c.name()))

	switch c := c.(type) {
	case searchCommand:
		return a.search(ctx, c)
	case paperCommand:
		return a.paper(ctx, c)
	case authorCommand:
		return a.author(ctx, c)
	case citationsCommand:
		return a.citations(ctx, c)
	case idCommand:
		return a.id(c)
	case dlCommand:
		return a.download(ctx, c)
	case aliasesCommand:
		return a.aliases(c)
	case downloadsCommand:
		return a.downloads(ctx, c)
	case configCommand:
		return a.configure(c)
	default:
		return fmt.Errorf("unhandled command %q", c.name())
	}
}

// run is the RunE body shared by every subcommand.
func run(cmd *cobra.Command, c command) error {
	a, err := newApp()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer a.logger.Sync() //nolint:errcheck

	if err := a.dispatch(cmd.Context(), c); err != nil {
		code := a.reportError(err)
		a.logger.Sync() //nolint:errcheck
		os.Exit(code)
	}
	return nil
}

// resolvePaper turns user input into a paper identifier. Inputs carrying an
// explicit external-ID prefix (DOI:, ARXIV:, ...) pass straight through;
// everything else must be in the alias store.
func (a *app) resolvePaper(input string) (string, error) {
	if parsed := s2.ParsePaperID(input); parsed.IsPrefixed() {
		return parsed.String(), nil
	}
	return a.store.Resolve(input)
}

// resolveAuthor turns user input into an author ID via the alias store.
func (a *app) resolveAuthor(input string) (string, error) {
	return a.store.Resolve(input)
}

// remember merges the aliases of papers into the store.
func (a *app) remember(papers []s2.Paper) error {
	if _, err := a.store.Merge(alias.ExtractAliases(papers)); err != nil {
		return fmt.Errorf("updating alias store: %w", err)
	}
	return nil
}

// reportError writes err to stderr and returns the exit code for it.
// Nothing is written to stdout, so a failed command never leaves partial
// or structured output behind. Upstream response bodies follow the message.
func (a *app) reportError(err error) int {
	code := ExitError
	switch {
	case errors.Is(err, alias.ErrNotFound):
		code = ExitAliasNotFound
	case errors.Is(err, s2.ErrNoDownloadURL):
		code = ExitNoDownloadURL
	case errors.Is(err, errConfig):
		code = ExitConfigError
	}

	fmt.Fprintf(a.stderr, "Error: %s\n", err)

	if body := s2.RawBody(err); len(body) > 0 {
		a.stderr.Write(body)
		if body[len(body)-1] != '\n' {
			fmt.Fprintln(a.stderr)
		}
	}

	return code
}

// openLedger opens the download ledger. The caller closes it.
func (a *app) openLedger() (*storage.Ledger, error) {
	return storage.OpenLedger(a.ledgerPath)
}
