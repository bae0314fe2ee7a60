// Package fetch downloads remote media referenced by URL into local files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
)

// DefaultTimeout bounds a single download, headers to last byte.
const DefaultTimeout = 300 * time.Second

// Static errors for fetch operations.
var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("fetch: only http and https URLs are supported")
	// ErrRequestFailed is returned when the server answers with a non-2xx status code.
	ErrRequestFailed = errors.New("fetch: request failed")
	// ErrEmptyBody is returned when the server answers with no content.
	ErrEmptyBody = errors.New("fetch: empty response body")
)

// Fetcher retrieves a remote resource into a local file.
type Fetcher interface {
	// Fetch downloads rawURL to dest. dest is only created once the whole
	// body has been received.
	Fetch(ctx context.Context, rawURL, dest string) error
}

// HTTPClient is the HTTP implementation of Fetcher.
type HTTPClient struct {
	httpClient *http.Client
	userAgent  string
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithTimeout sets the per-download timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		if d > 0 {
			hc.httpClient.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(hc *HTTPClient) {
		hc.userAgent = ua
	}
}

// NewClient creates a new HTTP fetcher.
func NewClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "mediacompose-api",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify interface implementation at compile time.
var _ Fetcher = (*HTTPClient)(nil)

// Fetch implements Fetcher.Fetch.
func (c *HTTPClient) Fetch(ctx context.Context, rawURL, dest string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("fetch: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("fetch: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("fetch: create directory: %w", err)
	}

	pending, err := renameio.NewPendingFile(dest)
	if err != nil {
		return fmt.Errorf("fetch: create pending file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	n, err := io.Copy(pending, resp.Body)
	if err != nil {
		return fmt.Errorf("fetch: read body: %w", err)
	}
	if n == 0 {
		return ErrEmptyBody
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("fetch: commit file: %w", err)
	}
	return nil
}

// Extension returns the file extension of the URL path, or fallback when the
// path has none. Query strings are ignored.
func Extension(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || len(ext) > 6 {
		return fallback
	}
	return ext
}
