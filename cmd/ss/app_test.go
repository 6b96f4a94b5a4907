package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/matsen/ss/internal/alias"
	"github.com/matsen/ss/internal/config"
	"github.com/matsen/ss/internal/fetch"
	"github.com/matsen/ss/internal/s2"
	"github.com/matsen/ss/internal/storage"
)

const testPaperID = "bo4c1e0f3b1d9a8c7e6f5a4b3c2d1e0f9a8b7c6d"

type testApp struct {
	*app
	backend *alias.MemoryBackend
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	outDir  string
	baseURL string
}

// newTestApp builds an app whose API calls go to handler and whose alias
// store starts with initial.
func newTestApp(t *testing.T, handler http.HandlerFunc, initial alias.Mapping) *testApp {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	backend := alias.NewMemoryBackend(initial)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	return &testApp{
		app: &app{
			cfg:   &config.Config{OutDir: filepath.Join(dir, "papers")},
			store: alias.NewStore(backend),
			client: s2.NewClient(
				s2.WithBaseURL(ts.URL),
				s2.WithHTTPClient(ts.Client()),
				s2.WithRateLimit(1000),
			),
			fetcher:    fetch.New(fetch.WithHTTPClient(ts.Client())),
			ledgerPath: filepath.Join(dir, "downloads.db"),
			logger:     zap.NewNop(),
			stdout:     stdout,
			stderr:     stderr,
		},
		backend: backend,
		stdout:  stdout,
		stderr:  stderr,
		outDir:  filepath.Join(dir, "papers"),
		baseURL: ts.URL,
	}
}

func TestDispatch_Search(t *testing.T) {
	var gotQuery string
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprintf(w, `{"data":[{"paperId":%q,"title":"Trees","year":2020,"authors":[{"authorId":"abcd1234","name":"Jane Q. Smith"}]}]}`, testPaperID)
	}, nil)

	if err := a.dispatch(context.Background(), searchCommand{Query: "trees", Limit: 5}); err != nil {
		t.Fatalf("dispatch(search) error = %v", err)
	}
	if gotQuery != "trees" {
		t.Errorf("query = %q, want trees", gotQuery)
	}

	var flat []FlatPaper
	if err := json.Unmarshal(a.stdout.Bytes(), &flat); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, a.stdout.String())
	}
	want := FlatPaper{ID: "bo4c", Title: "Trees", Year: 2020, Authors: "Jane Q. Smith (abcd)"}
	if len(flat) != 1 || flat[0] != want {
		t.Errorf("output = %+v, want [%+v]", flat, want)
	}

	for _, name := range []string{"bo4c", testPaperID, "Smith", "Jane Q. Smith", "abcd"} {
		if _, err := a.store.Resolve(name); err != nil {
			t.Errorf("Resolve(%q) after search error = %v", name, err)
		}
	}
}

func TestDispatch_AliasNotFound(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	}, nil)

	commands := []command{
		paperCommand{Alias: "nope"},
		authorCommand{Alias: "nope"},
		citationsCommand{Alias: "nope"},
		idCommand{Alias: "nope"},
		dlCommand{Alias: "nope"},
	}
	for _, c := range commands {
		err := a.dispatch(context.Background(), c)
		if !errors.Is(err, alias.ErrNotFound) {
			t.Errorf("dispatch(%s) error = %v, want ErrNotFound", c.name(), err)
		}
	}

	if a.backend.Exists() {
		t.Error("failed resolution created the alias store")
	}
	if code := a.reportError(fmt.Errorf("wrapped: %w", alias.ErrNotFound)); code != ExitAliasNotFound {
		t.Errorf("reportError() = %d, want %d", code, ExitAliasNotFound)
	}
}

func TestReportError_AliasNotFoundKeepsStdoutClean(t *testing.T) {
	for _, human := range []bool{false, true} {
		a := newTestApp(t, nil, nil)
		a.human = human

		err := a.dispatch(context.Background(), idCommand{Alias: "nope"})
		if code := a.reportError(err); code != ExitAliasNotFound {
			t.Errorf("human=%v: reportError() = %d, want %d", human, code, ExitAliasNotFound)
		}
		if a.stdout.Len() != 0 {
			t.Errorf("human=%v: stdout = %q, want nothing", human, a.stdout.String())
		}
		if got := a.stderr.String(); !strings.Contains(got, "alias not found: nope") {
			t.Errorf("human=%v: stderr = %q, want the alias error", human, got)
		}
	}
}

func TestDispatch_PrefixedIDPassesThrough(t *testing.T) {
	var gotPath string
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"data":[]}`)
	}, nil)

	if err := a.dispatch(context.Background(), citationsCommand{Alias: "doi:10.1/x"}); err != nil {
		t.Fatalf("dispatch(citations) error = %v", err)
	}
	if gotPath != "/paper/DOI:10.1/x/citations" {
		t.Errorf("path = %q, want /paper/DOI:10.1/x/citations", gotPath)
	}
}

func TestDispatch_PaperPassthrough(t *testing.T) {
	body := fmt.Sprintf(`{"paperId":%q,"title":"Trees","authors":[{"authorId":"77","name":"Ada"}]}`, testPaperID)
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}, alias.Mapping{"bo4c": testPaperID})

	if err := a.dispatch(context.Background(), paperCommand{Alias: "bo4c"}); err != nil {
		t.Fatalf("dispatch(paper) error = %v", err)
	}
	if a.stdout.String() != body {
		t.Errorf("stdout = %q, want the raw body %q", a.stdout.String(), body)
	}
	if id, err := a.store.Resolve("Ada"); err != nil || id != "77" {
		t.Errorf("Resolve(Ada) = %q, %v; want 77", id, err)
	}
}

func TestDispatch_Author(t *testing.T) {
	var gotPath string
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"authorId":"1729","name":"Frederick Matsen","papers":[{"paperId":"p1p1p1","title":"One","year":2019,"authors":[{"authorId":"1729","name":"Frederick Matsen"}]}]}`)
	}, alias.Mapping{"Matsen": "1729"})

	if err := a.dispatch(context.Background(), authorCommand{Alias: "Matsen"}); err != nil {
		t.Fatalf("dispatch(author) error = %v", err)
	}
	if gotPath != "/author/1729" {
		t.Errorf("path = %q, want /author/1729", gotPath)
	}
	if id, err := a.store.Resolve("p1p1"); err != nil || id != "p1p1p1" {
		t.Errorf("Resolve(p1p1) = %q, %v; want p1p1p1", id, err)
	}
}

func TestDispatch_ID(t *testing.T) {
	a := newTestApp(t, nil, alias.Mapping{"bo4c": testPaperID})

	if err := a.dispatch(context.Background(), idCommand{Alias: "bo4c"}); err != nil {
		t.Fatalf("dispatch(id) error = %v", err)
	}
	if a.stdout.String() != testPaperID {
		t.Errorf("stdout = %q, want %q", a.stdout.String(), testPaperID)
	}
	if a.backend.Saves() != 0 {
		t.Errorf("id wrote the alias store %d times", a.backend.Saves())
	}
}

func TestDispatch_Aliases(t *testing.T) {
	a := newTestApp(t, nil, alias.Mapping{"Smith": "1", "Smyth": "2", "Jones": "3"})

	if err := a.dispatch(context.Background(), aliasesCommand{Prefix: "Sm"}); err != nil {
		t.Fatalf("dispatch(aliases) error = %v", err)
	}

	var entries []alias.Entry
	if err := json.Unmarshal(a.stdout.Bytes(), &entries); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(entries) != 2 || entries[0].Alias != "Smith" || entries[1].Alias != "Smyth" {
		t.Errorf("entries = %+v", entries)
	}
}

// downloadServer serves paper metadata at /paper/* and a PDF at /pdf.
func downloadServer(t *testing.T, paperJSON func(baseURL string) string, pdf []byte) (*testApp, *int) {
	t.Helper()
	pdfRequests := 0
	var baseURL string
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/pdf":
			pdfRequests++
			w.Write(pdf)
		case strings.HasPrefix(r.URL.Path, "/paper/"):
			if got := r.URL.Query().Get("fields"); got != s2.DownloadFields {
				t.Errorf("fields = %q, want %q", got, s2.DownloadFields)
			}
			fmt.Fprint(w, paperJSON(baseURL))
		default:
			http.NotFound(w, r)
		}
	}, alias.Mapping{"bo4c": testPaperID})
	baseURL = a.baseURL
	return a, &pdfRequests
}

func openAccessPaper(baseURL string) string {
	return fmt.Sprintf(`{"paperId":%q,"title":"Trees","year":2021,
		"authors":[{"authorId":"1729","name":"Frederick Matsen"}],
		"isOpenAccess":true,"openAccessPdf":{"url":%q,"status":"GREEN"},
		"externalIds":{},"citationStyles":{"bibtex":"@Article{Matsen2021Trees,\n title={Trees}\n}"}}`,
		testPaperID, baseURL+"/pdf")
}

func TestDispatch_DownloadToFile(t *testing.T) {
	a, pdfRequests := downloadServer(t, openAccessPaper, testPDF())

	if err := a.dispatch(context.Background(), dlCommand{Alias: "bo4c"}); err != nil {
		t.Fatalf("dispatch(dl) error = %v", err)
	}

	wantPath := filepath.Join(a.outDir, "Matsen2021Trees.pdf")
	var result DownloadResult
	if err := json.Unmarshal(a.stdout.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, a.stdout.String())
	}
	if result.Path != wantPath || result.Source != "open_access" || result.Pages != 1 {
		t.Errorf("result = %+v", result)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
	if *pdfRequests != 1 {
		t.Errorf("pdf requests = %d, want 1", *pdfRequests)
	}

	if id, err := a.store.Resolve("Matsen2021Trees"); err != nil || id != testPaperID {
		t.Errorf("Resolve(citation key) = %q, %v; want %q", id, err, testPaperID)
	}

	ledger, err := storage.OpenLedger(a.ledgerPath)
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	defer ledger.Close()
	recent, err := ledger.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 1 || recent[0].CiteKey != "Matsen2021Trees" || recent[0].PaperID != testPaperID {
		t.Errorf("ledger = %+v", recent)
	}

	// A second run finds the file and skips the fetch.
	a.stdout.Reset()
	if err := a.dispatch(context.Background(), dlCommand{Alias: "bo4c"}); err != nil {
		t.Fatalf("second dispatch(dl) error = %v", err)
	}
	if *pdfRequests != 1 {
		t.Errorf("pdf requests after second run = %d, want 1", *pdfRequests)
	}
	if !strings.Contains(a.stderr.String(), "Already downloaded.") {
		t.Errorf("stderr = %q, want Already downloaded.", a.stderr.String())
	}

	// --force fetches again.
	a.stdout.Reset()
	if err := a.dispatch(context.Background(), dlCommand{Alias: "bo4c", Force: true}); err != nil {
		t.Fatalf("forced dispatch(dl) error = %v", err)
	}
	if *pdfRequests != 2 {
		t.Errorf("pdf requests after --force = %d, want 2", *pdfRequests)
	}
}

func TestDispatch_DownloadToStdout(t *testing.T) {
	pdf := testPDF()
	a, _ := downloadServer(t, openAccessPaper, pdf)

	if err := a.dispatch(context.Background(), dlCommand{Alias: "bo4c", Mode: dlToStdout}); err != nil {
		t.Fatalf("dispatch(dl --stdout) error = %v", err)
	}
	if !bytes.Equal(a.stdout.Bytes(), pdf) {
		t.Errorf("stdout has %d bytes, want the %d-byte PDF", a.stdout.Len(), len(pdf))
	}
	if _, err := os.Stat(a.outDir); !os.IsNotExist(err) {
		t.Errorf("--stdout created the output directory (err = %v)", err)
	}
}

func TestDispatch_DownloadKeepsUnparseablePDF(t *testing.T) {
	pdf := testPDFWithXRefShift(3)
	a, _ := downloadServer(t, openAccessPaper, pdf)

	if err := a.dispatch(context.Background(), dlCommand{Alias: "bo4c"}); err != nil {
		t.Fatalf("dispatch(dl) error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(a.outDir, "Matsen2021Trees.pdf"))
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if !bytes.Equal(got, pdf) {
		t.Errorf("saved %d bytes, want the %d-byte download", len(got), len(pdf))
	}

	var result DownloadResult
	if err := json.Unmarshal(a.stdout.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, a.stdout.String())
	}
	if result.Pages != 0 {
		t.Errorf("Pages = %d, want 0", result.Pages)
	}
	if !strings.Contains(a.stderr.String(), "warning:") {
		t.Errorf("stderr = %q, want a parse warning", a.stderr.String())
	}

	a.stdout.Reset()
	if err := a.dispatch(context.Background(), dlCommand{Alias: "bo4c", Mode: dlToStdout}); err != nil {
		t.Fatalf("dispatch(dl --stdout) error = %v", err)
	}
	if !bytes.Equal(a.stdout.Bytes(), pdf) {
		t.Errorf("stdout has %d bytes, want the %d-byte download", a.stdout.Len(), len(pdf))
	}
}

func TestDispatch_DownloadRejectsNonPDF(t *testing.T) {
	a, _ := downloadServer(t, openAccessPaper, []byte("<html>captcha</html>"))

	err := a.dispatch(context.Background(), dlCommand{Alias: "bo4c"})
	var upErr *s2.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("dispatch(dl) error = %v, want *s2.UpstreamError", err)
	}
	if _, statErr := os.Stat(filepath.Join(a.outDir, "Matsen2021Trees.pdf")); !os.IsNotExist(statErr) {
		t.Errorf("non-PDF body was saved (stat err = %v)", statErr)
	}
}

func TestDispatch_DownloadUnflaggedLinkUsesArXiv(t *testing.T) {
	a, _ := downloadServer(t, func(string) string {
		return fmt.Sprintf(`{"paperId":%q,"title":"Trees","year":2021,"isOpenAccess":false,
			"openAccessPdf":{"url":"https://publisher.example/paywalled.pdf"},
			"externalIds":{"ArXiv":"1234.5678"}}`, testPaperID)
	}, nil)

	if err := a.dispatch(context.Background(), dlCommand{Alias: "bo4c", Mode: dlPrintURL}); err != nil {
		t.Fatalf("dispatch(dl --url) error = %v", err)
	}
	if got := a.stdout.String(); got != "https://arxiv.org/pdf/1234.5678\n" {
		t.Errorf("stdout = %q, want the arXiv PDF URL", got)
	}
}

func TestDispatch_DownloadArXivFallback(t *testing.T) {
	a, pdfRequests := downloadServer(t, func(string) string {
		return fmt.Sprintf(`{"paperId":%q,"title":"Trees","year":2021,"isOpenAccess":false,
			"openAccessPdf":null,"externalIds":{"ArXiv":"1234.5678"},"citationStyles":null}`, testPaperID)
	}, nil)

	if err := a.dispatch(context.Background(), dlCommand{Alias: "bo4c", Mode: dlPrintURL}); err != nil {
		t.Fatalf("dispatch(dl --url) error = %v", err)
	}
	if got := a.stdout.String(); got != "https://arxiv.org/pdf/1234.5678\n" {
		t.Errorf("stdout = %q, want the arXiv PDF URL", got)
	}
	if *pdfRequests != 0 {
		t.Errorf("--url fetched the document")
	}
}

func TestDispatch_DownloadNoURL(t *testing.T) {
	a, _ := downloadServer(t, func(string) string {
		return fmt.Sprintf(`{"paperId":%q,"title":"Trees","year":2021,"isOpenAccess":false,"externalIds":{"DOI":"10.1/x"}}`, testPaperID)
	}, nil)

	err := a.dispatch(context.Background(), dlCommand{Alias: "bo4c"})
	if !errors.Is(err, s2.ErrNoDownloadURL) {
		t.Fatalf("dispatch(dl) error = %v, want ErrNoDownloadURL", err)
	}
	if code := a.reportError(err); code != ExitNoDownloadURL {
		t.Errorf("reportError() = %d, want %d", code, ExitNoDownloadURL)
	}
	entries, _ := os.ReadDir(a.outDir)
	if len(entries) != 0 {
		t.Errorf("output dir has %d entries, want none", len(entries))
	}
}

func TestReportError_Upstream(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"message":"slow down"}`)
	}, nil)

	err := a.dispatch(context.Background(), searchCommand{Query: "q"})
	if !s2.IsRateLimited(err) {
		t.Fatalf("dispatch(search) error = %v, want rate limited", err)
	}

	code := a.reportError(err)
	if code != ExitError {
		t.Errorf("reportError() = %d, want %d", code, ExitError)
	}
	if !strings.Contains(a.stderr.String(), `{"message":"slow down"}`) {
		t.Errorf("stderr = %q, want the raw response body", a.stderr.String())
	}

	if !strings.HasPrefix(a.stderr.String(), "Error: ") {
		t.Errorf("stderr = %q, want an Error: message first", a.stderr.String())
	}
	if a.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing on failure", a.stdout.String())
	}
	if a.backend.Exists() {
		t.Error("failed search wrote the alias store")
	}
}

// testPDF builds a one-page PDF with a valid cross-reference table.
func testPDF() []byte {
	return testPDFWithXRefShift(0)
}

// testPDFWithXRefShift builds a one-page PDF whose startxref offset is off by
// shift bytes.
func testPDFWithXRefShift(shift int) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref+shift)

	return buf.Bytes()
}

func TestDispatch_Downloads(t *testing.T) {
	a := newTestApp(t, nil, nil)

	ledger, err := storage.OpenLedger(a.ledgerPath)
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	for _, key := range []string{"Old2019", "New2024"} {
		if err := ledger.Record(context.Background(), storage.Download{CiteKey: key, PaperID: "p", Bytes: 2048, Pages: 3}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	ledger.Close()

	if err := a.dispatch(context.Background(), downloadsCommand{Limit: 1}); err != nil {
		t.Fatalf("dispatch(downloads) error = %v", err)
	}

	var result DownloadsResult
	if err := json.Unmarshal(a.stdout.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if result.Total != 2 || len(result.Downloads) != 1 || result.Downloads[0].CiteKey != "New2024" {
		t.Errorf("result = %+v", result)
	}
}

func TestDispatch_HumanSearch(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[{"paperId":%q,"title":"Trees","authors":[]}]}`, testPaperID)
	}, nil)
	a.human = true

	if err := a.dispatch(context.Background(), searchCommand{Query: "trees"}); err != nil {
		t.Fatalf("dispatch(search) error = %v", err)
	}
	if got, want := a.stdout.String(), "1. [bo4c] Trees (n.d.)\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}
