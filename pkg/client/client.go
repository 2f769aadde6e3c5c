package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/naveenspark/haven/internal/logger"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// TokenSource supplies the bearer credential for each request. An empty
// token means the request is sent without an Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client is the Haven API client.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	retryMax   uint64
	retryBase  time.Duration
	log        logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger for decode problems the client recovers from.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit caps outgoing requests to rps per second with the given burst.
// rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets how many times an idempotent GET is retried after a
// network failure or 5xx response, and the initial backoff between tries.
func WithRetries(max int, base time.Duration) Option {
	return func(c *Client) {
		if max < 0 {
			max = 0
		}
		c.retryMax = uint64(max)
		if base > 0 {
			c.retryBase = base
		}
	}
}

// New creates a new API client.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(10), 20),
		retryMax:  2,
		retryBase: 250 * time.Millisecond,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET and returns the raw response body. Failed attempts are
// retried with exponential backoff.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	op := func() error {
		var err error
		body, err = c.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBase
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.retryMax), ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// Post issues a POST with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPost, path, body)
}

// Put issues a PUT with an optional JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.doRequest(ctx, http.MethodDelete, path, nil)
}

func retryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork:
		return true
	case KindServer:
		var httpErr *HTTPError
		return errors.As(err, &httpErr) && httpErr.StatusCode >= 500
	}
	return false
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if resp.StatusCode >= 400 {
		if readErr != nil {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			if msg := firstNonEmpty(apiErr.Error, apiErr.Message); msg != "" {
				return nil, &HTTPError{StatusCode: resp.StatusCode, Message: msg}
			}
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}
	if readErr != nil {
		return nil, fmt.Errorf("read response: %w", readErr)
	}
	return respBody, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
