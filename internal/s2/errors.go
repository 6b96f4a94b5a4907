package s2

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the S2 client.
var (
	// ErrNotFound indicates the paper or author was not found.
	ErrNotFound = errors.New("not found in Semantic Scholar")

	// ErrAuthError indicates a missing or invalid API key.
	ErrAuthError = errors.New("Semantic Scholar authentication error")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("Semantic Scholar rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Semantic Scholar")

	// ErrInvalidResponse indicates a response that lacks expected fields.
	ErrInvalidResponse = errors.New("invalid response from Semantic Scholar")

	// ErrNoDownloadURL indicates that a paper has neither an open-access link
	// nor an arXiv identifier to build a fallback link from.
	ErrNoDownloadURL = errors.New("no download URL available")
)

// UpstreamError is returned when a remote call did not succeed or its
// response could not be used. Body holds the raw response for diagnosis.
type UpstreamError struct {
	URL        string
	StatusCode int
	Body       []byte
	Reason     string
}

func (e *UpstreamError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("upstream error from %s (status %d): %s", e.URL, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("upstream error from %s: status %d", e.URL, e.StatusCode)
}

// Unwrap maps the status code onto the matching sentinel error so callers
// can use errors.Is.
func (e *UpstreamError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrAuthError
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= 200 && e.StatusCode < 300:
		return ErrInvalidResponse
	}
	return nil
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthError)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// RawBody returns the raw upstream response body carried by err, if any.
func RawBody(err error) []byte {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Body
	}
	return nil
}
