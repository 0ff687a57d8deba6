// Package gateway wraps the HTTP calls the storefront makes to the remote
// catalog API: listing, search, detail, cart, login and payment.  Every
// call is a single attempt; failures are returned as *HTTPError,
// *DecodeError or a wrapped transport error and never retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/movie-storefront/internal/logger"
)

// Client talks to one remote API base URL.  A Client bound to a cookie jar
// (see WithJar) carries that browser session's upstream cookies on every
// request.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMetrics enables request instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New builds a Client for baseURL (e.g. http://localhost:8080/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithJar returns a copy of c whose requests use jar for cookies.
func (c *Client) WithJar(jar http.CookieJar) *Client {
	cp := *c
	hc := *c.http
	hc.Jar = jar
	cp.http = &hc
	return &cp
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// do performs r and decodes a 2xx body into out (when out is non-nil).  The
// raw body is returned so callers can inspect error payloads.
func (c *Client) do(ctx context.Context, r request, out any) ([]byte, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", r.op, err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(r.op, 0, started)
		return nil, fmt.Errorf("%s: %w", r.op, err)
	}
	defer resp.Body.Close()
	c.metrics.observe(r.op, resp.StatusCode, started)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", r.op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, &HTTPError{Op: r.op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return raw, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.From(ctx).Warn("gateway: undecodable response", "op", r.op, "err", err)
		return raw, &DecodeError{Op: r.op, Body: string(raw), Err: err}
	}
	return raw, nil
}
