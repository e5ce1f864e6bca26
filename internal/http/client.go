package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

// Common errors.
var (
	ErrNotFound     = errors.New("http: resource not found")
	ErrForbidden    = errors.New("http: access forbidden")
	ErrUnauthorized = errors.New("http: unauthorized")
	ErrServerError  = errors.New("http: server error")
)

// Options configures the HTTP client.
type Options struct {
	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 100
	MaxIdleConnsPerHost int

	// Timeout for individual requests.
	// Default: 30s
	Timeout time.Duration

	// RetryAttempts is the maximum number of retry attempts.
	// Default: 5
	RetryAttempts int

	// RetryBackoff is the initial backoff duration.
	// Default: 1s
	RetryBackoff time.Duration

	// RetryMaxBackoff is the maximum backoff duration.
	// Default: 30s
	RetryMaxBackoff time.Duration
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxIdleConnsPerHost: 100,
		Timeout:             30 * time.Second,
		RetryAttempts:       5,
		RetryBackoff:        time.Second,
		RetryMaxBackoff:     30 * time.Second,
	}
}

// ResourceInfo contains metadata about a remote resource.
type ResourceInfo struct {
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Client is an HTTP client that retries transient failures.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// Head performs a HEAD request to get resource metadata.
func (c *Client) Head(ctx context.Context, url string) (*ResourceInfo, error) {
	var lastErr error

	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("%w: %d %s", ErrServerError, resp.StatusCode, resp.Status)
			continue
		}

		if err := checkStatusCode(resp.StatusCode); err != nil {
			return nil, err
		}

		info := &ResourceInfo{
			Size:        resp.ContentLength,
			ETag:        cleanETag(resp.Header.Get("ETag")),
			ContentType: resp.Header.Get("Content-Type"),
		}

		if lm := resp.Header.Get("Last-Modified"); lm != "" {
			if t, err := http.ParseTime(lm); err == nil {
				info.LastModified = t
			}
		}

		return info, nil
	}

	return nil, fmt.Errorf("head request failed after %d attempts: %w", c.opts.RetryAttempts+1, lastErr)
}

// Get performs a GET request and returns the response body. The caller
// must close the returned reader.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: %d %s", ErrServerError, resp.StatusCode, resp.Status)
			continue
		}

		if err := checkStatusCode(resp.StatusCode); err != nil {
			resp.Body.Close()
			return nil, err
		}

		return resp.Body, nil
	}

	return nil, fmt.Errorf("get request failed after %d attempts: %w", c.opts.RetryAttempts+1, lastErr)
}

// GetJSON performs a GET request and decodes the response body as JSON
// into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode json from %s: %w", url, err)
	}
	return nil
}

// backoff waits for an exponentially increasing duration with jitter.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := c.opts.RetryBackoff * time.Duration(1<<uint(attempt-1))
	if backoff > c.opts.RetryMaxBackoff {
		backoff = c.opts.RetryMaxBackoff
	}

	// Add jitter: 0.5 to 1.5 of backoff
	jitter := time.Duration(float64(backoff) * (0.5 + rand.Float64()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jitter):
		return nil
	}
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}

// cleanETag removes quotes and the weak-validator prefix from an ETag.
func cleanETag(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	return etag
}
