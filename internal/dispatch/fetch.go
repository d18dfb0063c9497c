package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// passthroughHeaders is the fixed allow-list of origin headers forwarded
// to the client. Everything else is dropped to avoid leaking upstream
// infrastructure details.
var passthroughHeaders = []string{
	"Content-Type", "Content-Length", "ETag", "Last-Modified",
}

// Resource is fetched origin content: the allow-listed headers plus the
// body. It is the unit stored in the passthrough content cache.
type Resource struct {
	Headers map[string]string `json:"headers"`
	Body    []byte            `json:"body"`
}

// Fetcher retrieves origin resources for passthrough mode.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Resource, error)
}

// HTTPFetcher fetches origin resources over plain HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with a bounded request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build origin request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch origin %q: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read origin %q: %w", url, err)
	}

	headers := make(map[string]string, len(passthroughHeaders))

	for _, name := range passthroughHeaders {
		if value := resp.Header.Get(name); value != "" {
			headers[name] = value
		}
	}

	return &Resource{Headers: headers, Body: body}, nil
}

// Compile-time check.
var _ Fetcher = (*HTTPFetcher)(nil)
