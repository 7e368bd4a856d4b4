package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// a single sensor host, polled by overlapping ticks at most
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// Request describes one sensor read. The method is always GET.
type Request struct {
	// URL is the absolute URL of the read endpoint.
	URL string

	// Headers are sent with the request.
	Headers map[string]string

	// Timeout bounds the whole request including the body read.
	// Zero means no timeout beyond the caller's context.
	Timeout time.Duration
}

// Response holds the single result of a [Request].
//
// A Response with a nil Error is complete: the status line and the full body
// (up to 1MB) were received. A non-nil Error means the request never reached
// the complete state; StatusCode may still be set if headers arrived before
// the failure.
type Response struct {
	// Body contains the HTTP response body. It is empty when the body exceeded
	// 1MB, in which case Error is set.
	Body []byte

	// StatusCode is the HTTP status code, or zero if no response arrived.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error is non-nil when the request did not complete.
	Error error
}

// Fetcher performs sensor reads. [Client] is the HTTP implementation.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) Response
}

// Client is an HTTP [Fetcher] for sensor endpoints.
//
// Client uses per-request timeouts via context rather than a global timeout.
// A response body over 1MB is reported as an error.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new [Client] with a pooled transport and no global
// timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Fetch performs a GET request and returns its single [Response].
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately.
func (c *Client) Fetch(ctx context.Context, r Request) Response {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// one byte past the limit tells an oversized body from one that fits
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}
	if len(body) > maxResponseBodySize {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("response body exceeds %d bytes", maxResponseBodySize),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes idle connections. The client remains usable afterwards.
// Safe to call multiple times and on a nil receiver.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
