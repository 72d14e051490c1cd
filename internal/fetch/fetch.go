// Package fetch retrieves remote documents over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client retrieves the content behind a URL.
type Client interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// StatusError reports a response that arrived but carried a non-success
// status code. Callers can distinguish it from transport errors with
// errors.As.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: unexpected status %d for %s", e.StatusCode, e.URL)
}

// Config holds fetch client settings.
type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// HTTPClient is the net/http implementation of Client.
type HTTPClient struct {
	client       *http.Client
	maxBodyBytes int64
	userAgent    string
}

// NewHTTPClient creates an HTTPClient from cfg. A non-positive timeout
// defaults to 30s; a non-positive MaxBodyBytes disables the size cap.
func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		client:       &http.Client{Timeout: timeout},
		maxBodyBytes: cfg.MaxBodyBytes,
		userAgent:    cfg.UserAgent,
	}
}

// Get performs a synchronous GET against url and returns the response body.
// Non-2xx responses return a *StatusError. Bodies larger than the configured
// cap are an error, never silently truncated.
func (c *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request for %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	reader := io.Reader(resp.Body)
	if c.maxBodyBytes > 0 {
		reader = io.LimitReader(reader, c.maxBodyBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body from %s: %w", url, err)
	}
	if c.maxBodyBytes > 0 && int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("fetch: response from %s exceeds %d byte limit", url, c.maxBodyBytes)
	}
	return body, nil
}
