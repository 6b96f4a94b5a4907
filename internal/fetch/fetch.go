// Package fetch retrieves PDF documents and stores them on disk.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/matsen/ss/internal/s2"
)

const (
	// DefaultTimeout bounds a whole document download.
	DefaultTimeout = 5 * time.Minute

	// MaxSize is the largest document that will be read into memory.
	MaxSize = 256 << 20

	// errorBodyLimit caps how much of a failed response is kept for diagnosis.
	errorBodyLimit = 4096

	userAgent = "ss (Semantic Scholar CLI)"
)

var (
	// ErrNotPDF indicates that downloaded content does not start with a PDF header.
	ErrNotPDF = errors.New("content is not a PDF")

	// ErrMalformed indicates a PDF whose structure could not be parsed.
	ErrMalformed = errors.New("malformed PDF")
)

// Fetcher downloads documents over HTTP.
type Fetcher struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = hc
	}
}

// WithLogger sets the logger used for download diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Document is a downloaded PDF. Pages is zero when the file could not be
// parsed, in which case ParseErr says why.
type Document struct {
	URL      string
	Data     []byte
	Pages    int
	ParseErr error
}

// Fetch downloads the document at url and checks that it is a PDF.
// Failed responses and content without a PDF header are reported as
// *s2.UpstreamError. A parse failure past the header is only logged.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/pdf")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &s2.UpstreamError{URL: url, StatusCode: resp.StatusCode, Body: body}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(data) > MaxSize {
		return nil, &s2.UpstreamError{URL: url, StatusCode: resp.StatusCode, Reason: "document exceeds size limit"}
	}

	f.logger.Debug("fetched document",
		zap.String("url", url),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	if err := CheckHeader(data); err != nil {
		body := data
		if len(body) > errorBodyLimit {
			body = body[:errorBodyLimit]
		}
		return nil, &s2.UpstreamError{URL: url, StatusCode: resp.StatusCode, Body: body, Reason: err.Error()}
	}

	doc := &Document{URL: url, Data: data}
	doc.Pages, doc.ParseErr = PageCount(data)
	if doc.ParseErr != nil {
		f.logger.Warn("document kept despite parse failure",
			zap.String("url", url),
			zap.Error(doc.ParseErr))
	}
	return doc, nil
}

// CheckHeader reports ErrNotPDF unless data starts with a PDF header.
func CheckHeader(data []byte) error {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return fmt.Errorf("%w: missing %%PDF header", ErrNotPDF)
	}
	return nil
}

// PageCount parses data as a PDF and returns its page count. Real-world
// files often have damaged cross-reference tables, so callers treat a
// failure here as a warning rather than a rejection.
func PageCount(data []byte) (pages int, err error) {
	if err := CheckHeader(data); err != nil {
		return 0, err
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return r.NumPage(), nil
}

// Path returns where a document with the given citation key is stored.
func Path(dir, citeKey string) string {
	return filepath.Join(dir, citeKey+".pdf")
}

// Exists reports whether a regular file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// WriteFile writes data to path atomically, creating the directory if needed.
// Uses temp file + rename in the destination directory.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*.pdf")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
