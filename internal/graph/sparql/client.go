// Package sparql implements graph.Port over the SPARQL 1.1 protocol. Result
// rows are decoded from the JSON results format one at a time as the caller
// pulls them.
package sparql

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/resilience"
)

const resultsMediaType = "application/sparql-results+json"

type Client struct {
	endpoint   string
	httpClient *http.Client
	idle       time.Duration
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client. A Client.Timeout on hc also
// bounds how long rows may stay unread, so callers holding a cursor open
// across other queries should leave it zero.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient bounds each query by timeout until the response headers arrive,
// and afterwards by timeout per blocked read of the result stream. Time a
// caller spends between reads is not limited.
func NewClient(endpoint string, timeout time.Duration, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Transport: transport},
		idle:       timeout,
		logger:     slog.Default().With("component", "sparql-client", "endpoint", endpoint),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute posts query to the endpoint and returns a cursor over its rows.
// Client errors other than 429 are marked permanent so they are not retried.
func (c *Client) Execute(ctx context.Context, query string) (graph.Cursor, error) {
	if strings.TrimSpace(query) == "" {
		return nil, resilience.Permanent(graph.ErrEmptyQuery)
	}
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("building sparql request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", resultsMediaType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparql request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("sparql endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(err)
		}
		return nil, err
	}
	c.logger.Debug("sparql query accepted",
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return newCursor(guardIdle(resp.Body, c.idle)), nil
}

// idleGuard closes body when a single Read blocks for longer than idle.
type idleGuard struct {
	body    io.ReadCloser
	idle    time.Duration
	stalled atomic.Bool
}

func guardIdle(body io.ReadCloser, idle time.Duration) io.ReadCloser {
	if idle <= 0 {
		return body
	}
	return &idleGuard{body: body, idle: idle}
}

func (g *idleGuard) Read(p []byte) (int, error) {
	timer := time.AfterFunc(g.idle, func() {
		g.stalled.Store(true)
		g.body.Close()
	})
	n, err := g.body.Read(p)
	timer.Stop()
	if err != nil && g.stalled.Load() {
		return n, fmt.Errorf("sparql stream idle for %s: %w", g.idle, err)
	}
	return n, err
}

func (g *idleGuard) Close() error {
	return g.body.Close()
}
