// Package httpclient provides the outbound HTTP client used by source
// handlers to fetch remote data.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// defaultTimeout bounds a request when the caller passes no timeout.
	defaultTimeout = 30 * time.Second

	// maxResponseSize caps a response body at 100MB. A feature collection
	// beyond this is almost certainly a misconfigured query.
	maxResponseSize = 100 * 1024 * 1024

	userAgent = "mm-catalog-api/1.0"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client issues GET requests for source data.
type Client interface {
	// Get fetches the URL and returns the raw response body. Any network,
	// HTTP status or size-limit problem is returned as an error; callers
	// decide how to present it.
	Get(ctx context.Context, url string) ([]byte, error)
}

type defaultClient struct {
	client *http.Client
}

// NewDefaultClient creates a Client with the given request timeout. A zero
// or negative timeout falls back to the default.
func NewDefaultClient(timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &defaultClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get implements Client.
func (c *defaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, NewHTTPError(resp.StatusCode, url, http.StatusText(resp.StatusCode))
	}

	if resp.ContentLength > maxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %.2f MB",
			resp.ContentLength, float64(maxResponseSize)/(1024*1024))
	}

	body, err := readCapped(resp.Body, maxResponseSize)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// readCapped reads at most limit bytes, failing instead of truncating when
// the reader holds more.
func readCapped(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response body exceeds maximum allowed size of %.2f MB",
			float64(limit)/(1024*1024))
	}
	return body, nil
}
