// Package jira is a small REST client for the tracker's v3 API.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiPath            = "/rest/api/3"
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBaseBackoff = time.Second
	defaultRateLimit   = 10 // requests per second
	defaultBurst       = 5
)

// Client talks to one tracker site with basic auth.
type Client struct {
	baseURL     string
	auth        string // base64 email:token, never logged
	token       string
	httpClient  *http.Client
	limiter     *rate.Limiter
	log         *zap.Logger
	maxAttempts int
	baseBackoff time.Duration

	mu    sync.Mutex
	users map[string]string // email -> accountId
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for retries and lookup misses.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithBackoff sets the retry attempt count and the first retry delay. The
// delay doubles on each further attempt.
func WithBackoff(attempts int, base time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.baseBackoff = base
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// New creates a client for the site at apiURL (e.g. https://acme.atlassian.net).
func New(apiURL, email, token string, opts ...Option) (*Client, error) {
	if apiURL == "" || email == "" || token == "" {
		return nil, fmt.Errorf("api url, email and token are required")
	}
	c := &Client{
		baseURL:     strings.TrimRight(apiURL, "/") + apiPath,
		auth:        base64.StdEncoding.EncodeToString([]byte(email + ":" + token)),
		token:       token,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		log:         zap.NewNop(),
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
		users:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c, nil
}

// Redact strips this client's credentials from text.
func (c *Client) Redact(text string) string {
	return Redact(Redact(text, c.auth), c.token)
}

// do sends a request, retrying 429 and 503 responses with exponential
// backoff. out may be nil; a 204 response leaves it untouched.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			c.log.Warn("tracker rate limited, retrying",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.send(ctx, method, path, payload, out)
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.auth)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %s", method, path, c.Redact(err.Error()))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: c.Redact(strings.TrimSpace(string(data)))}
	}
	if resp.StatusCode == http.StatusNoContent || out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
