package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Semantic Scholar Academic Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is the request rate used without an API key.
	RateLimit = 1.0

	// AuthenticatedRateLimit is the request rate used with an API key.
	AuthenticatedRateLimit = 10.0

	// DefaultPaperFields are requested for paper, search, and citation lookups.
	DefaultPaperFields = "title,year,authors,abstract,citationStyles,paperId"

	// DefaultAuthorFields are requested for author lookups.
	DefaultAuthorFields = "papers.year,papers.title,papers.authors"

	// DownloadFields are requested when resolving a paper's PDF.
	DownloadFields = "paperId,title,year,authors,openAccessPdf,externalIds,citationStyles,isOpenAccess"

	// DefaultSearchLimit matches the API's own default page size.
	DefaultSearchLimit = 10

	// MaxLimit is the largest page size the API accepts.
	MaxLimit = 100
)

// Client is a rate-limited HTTP client for the Semantic Scholar Graph API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRateLimit overrides the request rate (requests per second).
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a new Semantic Scholar API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.limiter == nil {
		rps := RateLimit
		if c.apiKey != "" {
			rps = AuthenticatedRateLimit
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return c
}

// get performs a GET request against the API and returns the raw body.
// Non-2xx responses become an *UpstreamError carrying the body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetworkError, err)
	}

	c.logger.Debug("s2 request",
		zap.String("url", reqURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	return body, nil
}

// invalid builds an UpstreamError for a successful response that cannot be used.
func invalid(path string, body []byte, reason string) error {
	return &UpstreamError{
		URL:        path,
		StatusCode: http.StatusOK,
		Body:       body,
		Reason:     reason,
	}
}

// SearchPapers searches for papers by keyword relevance. Only the first
// page of results is returned.
func (c *Client) SearchPapers(ctx context.Context, query string, limit int) ([]Paper, error) {
	params := url.Values{
		"query":  {query},
		"fields": {DefaultPaperFields},
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(min(limit, MaxLimit)))
	}

	body, err := c.get(ctx, "/paper/search", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data *[]Paper `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, invalid("/paper/search", body, "parsing search results: "+err.Error())
	}
	if resp.Data == nil {
		return nil, invalid("/paper/search", body, "response has no data field")
	}

	return *resp.Data, nil
}

// GetPaperRaw fetches a paper and returns the undecoded JSON body.
func (c *Client) GetPaperRaw(ctx context.Context, paperID, fields string) ([]byte, error) {
	if fields == "" {
		fields = DefaultPaperFields
	}
	return c.get(ctx, "/paper/"+paperID, url.Values{"fields": {fields}})
}

// GetPaper fetches a paper by its identifier.
func (c *Client) GetPaper(ctx context.Context, paperID, fields string) (*Paper, error) {
	body, err := c.GetPaperRaw(ctx, paperID, fields)
	if err != nil {
		return nil, err
	}

	var paper Paper
	if err := json.Unmarshal(body, &paper); err != nil {
		return nil, invalid("/paper/"+paperID, body, "parsing paper: "+err.Error())
	}
	if paper.PaperID == "" {
		return nil, invalid("/paper/"+paperID, body, "response has no paperId")
	}

	return &paper, nil
}

// GetCitations fetches papers that cite the given paper. Entries without a
// citing paper are skipped.
func (c *Client) GetCitations(ctx context.Context, paperID string, limit int) ([]Paper, error) {
	params := url.Values{"fields": {DefaultPaperFields}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(min(limit, MaxLimit)))
	}

	path := "/paper/" + paperID + "/citations"
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var resp citationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, invalid(path, body, "parsing citations: "+err.Error())
	}
	if resp.Data == nil {
		return nil, invalid(path, body, "response has no data field")
	}

	papers := make([]Paper, 0, len(resp.Data))
	for _, r := range resp.Data {
		if r.CitingPaper == nil {
			continue
		}
		papers = append(papers, *r.CitingPaper)
	}

	return papers, nil
}

// GetAuthor fetches an author and their papers.
func (c *Client) GetAuthor(ctx context.Context, authorID, fields string) (*AuthorDetails, error) {
	if fields == "" {
		fields = DefaultAuthorFields
	}

	path := "/author/" + authorID
	body, err := c.get(ctx, path, url.Values{"fields": {fields}})
	if err != nil {
		return nil, err
	}

	var raw struct {
		AuthorID string   `json:"authorId"`
		Name     string   `json:"name"`
		Papers   *[]Paper `json:"papers"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, invalid(path, body, "parsing author: "+err.Error())
	}
	if raw.Papers == nil {
		return nil, invalid(path, body, "response has no papers field")
	}

	return &AuthorDetails{
		AuthorID: raw.AuthorID,
		Name:     raw.Name,
		Papers:   *raw.Papers,
	}, nil
}
