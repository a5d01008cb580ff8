// Package client reads the transactions endpoint of the finances backend.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"gofinances/internal/core"
)

const (
	transactionsPath = "transactions"
	defaultTimeout   = 10 * time.Second
	defaultMaxBody   = 4 << 20 // 4MB
	snippetLen       = 256
)

// Client issues read requests against the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxBody    int64
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxBodyBytes bounds how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxBody:    defaultMaxBody,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wireResult detects missing top-level keys, which a plain core.Result would
// silently zero.
type wireResult struct {
	Transactions *[]core.Transaction `json:"transactions"`
	Balance      *core.Balance       `json:"balance"`
}

// FetchTransactions performs GET {base}/transactions and decodes the result.
// Failures wrap ErrTransport, ErrStatus or ErrDecode.
func (c *Client) FetchTransactions(ctx context.Context) (core.Result, error) {
	start := time.Now()
	url := c.baseURL + "/" + transactionsPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Result{}, fmt.Errorf("%w: get %s: %v", ErrTransport, url, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Backend responded",
		"url", url,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLen))
		return core.Result{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || !acceptedMediaType(mediaType) {
			return core.Result{}, fmt.Errorf("%w: content type %q", ErrDecode, ct)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return core.Result{}, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if int64(len(body)) > c.maxBody {
		return core.Result{}, fmt.Errorf("%w: body exceeds %d bytes", ErrDecode, c.maxBody)
	}

	var wire wireResult
	if err := json.Unmarshal(body, &wire); err != nil {
		return core.Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if wire.Transactions == nil {
		return core.Result{}, fmt.Errorf("%w: missing transactions", ErrDecode)
	}
	if wire.Balance == nil {
		return core.Result{}, fmt.Errorf("%w: missing balance", ErrDecode)
	}

	return core.Result{Transactions: *wire.Transactions, Balance: *wire.Balance}, nil
}

// acceptedMediaType allows JSON and text/plain, which some servers and
// proxies report for JSON bodies they did not label.
func acceptedMediaType(mediaType string) bool {
	switch {
	case mediaType == "application/json", mediaType == "text/plain":
		return true
	case strings.HasSuffix(mediaType, "+json"):
		return true
	default:
		return false
	}
}
