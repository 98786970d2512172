// Package upstream forwards HTTP requests to the provider origin and hands
// back live responses for streaming.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// httpClient is the shared HTTP client for upstream requests. It carries no
// timeout of its own: chat completion streams can stay open for minutes, and
// request lifetime is bounded by the inbound request context instead.
var httpClient = &http.Client{}

// Request holds the parameters for a forwarded upstream request.
type Request struct {
	Method  string
	Path    string      // path plus raw query, joined onto the client origin
	Headers http.Header // forwarded verbatim, one Add per value
	Body    []byte      // nil means the request carries no body at all
}

// Response wraps the upstream HTTP response. Body is the live response and
// must be closed by the caller once streaming finishes.
type Response struct {
	StatusCode int
	Body       *http.Response
	Headers    http.Header
}

// Client makes requests to the upstream provider.
type Client struct {
	Origin  string
	Verbose bool
	Debug   bool

	dumpMu sync.Mutex
}

// NewClient creates a new upstream client for the given origin.
func NewClient(origin string, verbose, debug bool) *Client {
	return &Client{Origin: origin, Verbose: verbose, Debug: debug}
}

// Do sends the request to the upstream origin and returns the response without
// reading its body.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.Origin+req.Path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	for name, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(name, value)
		}
	}

	if c.Verbose {
		slog.Info("upstream.request",
			"method", req.Method,
			"url", c.Origin+req.Path,
			"body_bytes", len(req.Body),
		)
	}
	c.dumpUpstreamRequest(httpReq)

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	if c.Verbose {
		requestID := upstreamRequestID(resp.Header)
		attrs := []any{"status", resp.StatusCode}
		if requestID != "" {
			attrs = append(attrs, "request_id", requestID)
		}
		slog.Info("upstream.response", attrs...)
	}
	c.dumpUpstreamResponse(resp)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       resp,
		Headers:    resp.Header,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func upstreamRequestID(headers http.Header) string {
	if headers == nil {
		return ""
	}
	return firstNonEmpty(
		headers.Get("x-request-id"),
		headers.Get("x-goog-request-id"),
		headers.Get("request-id"),
	)
}
