package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"solana-token-analyzer/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultRateLimitDelay = 500 * time.Millisecond
)

// EndpointsExhaustedError is returned when every endpoint of one pass failed.
// Only the last observed error is kept.
type EndpointsExhaustedError struct {
	Endpoints int
	Last      error
}

func (e *EndpointsExhaustedError) Error() string {
	return fmt.Sprintf("all RPC endpoints failed: %v", e.Last)
}

func (e *EndpointsExhaustedError) Unwrap() error {
	return e.Last
}

// HTTPStatusError is returned for a non-2xx HTTP response.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client is a JSON-RPC 2.0 client that fails over across an EndpointPool
// and retries whole passes under a RetryPolicy.
type Client struct {
	pool           *EndpointPool
	client         *http.Client
	rateLimitDelay time.Duration
	retry          RetryPolicy
	sleeper        Sleeper
	logger         *log.Logger
	metrics        *observability.Metrics
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithBackups replaces the backup endpoint list.
func WithBackups(backups []string) ClientOption {
	return func(c *Client) {
		c.pool = NewEndpointPool(c.pool.Primary(), backups)
	}
}

// WithRateLimitDelay sets the delay applied before every endpoint attempt.
func WithRateLimitDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.rateLimitDelay = d
	}
}

// WithRetryPolicy sets the outer retry policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = p
	}
}

// WithSleeper sets the sleeper used for rate limiting and backoff.
func WithSleeper(s Sleeper) ClientOption {
	return func(c *Client) {
		c.sleeper = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client whose first primary is endpoint.
// Backups default to DefaultBackupEndpoints.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		pool:           NewEndpointPool(endpoint, DefaultBackupEndpoints),
		client:         &http.Client{Timeout: DefaultTimeout},
		rateLimitDelay: DefaultRateLimitDelay,
		retry:          DefaultRetryPolicy(),
		sleeper:        RealSleeper{},
		logger:         log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Primary returns the endpoint the next call will try first.
func (c *Client) Primary() string {
	return c.pool.Primary()
}

// Endpoints returns the ordered endpoint list of the next pass.
func (c *Client) Endpoints() []string {
	return c.pool.Candidates()
}

// Call performs method with params and returns the raw "result" member.
// A pass tries every endpoint once; the retry policy repeats failed passes.
func (c *Client) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      requestID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	policy := c.retry
	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Printf("WARN: %s attempt %d/%d failed, retrying in %v: %v", method, attempt, policy.MaxAttempts, delay, err)
		c.metrics.RecordRetry(method)
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
	}

	var result json.RawMessage
	err = policy.Do(ctx, c.sleeper, func(ctx context.Context, _ int) error {
		res, err := c.callEndpoints(ctx, method, body)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		c.metrics.RecordExhausted(method)
		return nil, fmt.Errorf("rpc %s: %w", method, err)
	}
	return result, nil
}

// callEndpoints makes one pass over the endpoint list.
func (c *Client) callEndpoints(ctx context.Context, method string, body []byte) (json.RawMessage, error) {
	endpoints := c.pool.Candidates()

	var lastErr error
	for _, endpoint := range endpoints {
		if err := c.sleeper.Sleep(ctx, c.rateLimitDelay); err != nil {
			return nil, err
		}
		c.metrics.RecordRateLimitWait(c.rateLimitDelay.Seconds())

		label := endpointLabel(endpoint)
		start := time.Now()
		result, err := c.doRequest(ctx, endpoint, body)
		c.metrics.RecordRPCAttempt(label, method, time.Since(start).Seconds(), err)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = err
			c.logger.Printf("WARN: RPC request failed for %s: %v", label, err)
			continue
		}

		if c.pool.Promote(endpoint) {
			c.logger.Printf("primary RPC endpoint is now %s", label)
			c.metrics.RecordFailover(label)
		}
		return result, nil
	}

	return nil, &EndpointsExhaustedError{Endpoints: len(endpoints), Last: lastErr}
}

// doRequest sends one envelope to one endpoint.
func (c *Client) doRequest(ctx context.Context, endpoint string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 200)}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.hasError() {
		return nil, rpcResp.rpcError()
	}

	return rpcResp.Result, nil
}

// IsRPCError reports whether err carries a node-reported JSON-RPC error.
func IsRPCError(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
