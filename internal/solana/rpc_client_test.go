package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventLog records sleeps and requests in the order they happen.
type eventLog struct {
	mu     sync.Mutex
	events []string
	sleeps []time.Duration
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) Sleep(ctx context.Context, d time.Duration) error {
	l.mu.Lock()
	l.events = append(l.events, "sleep:"+d.String())
	l.sleeps = append(l.sleeps, d)
	l.mu.Unlock()
	return ctx.Err()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

func newTestClient(primary string, backups []string, sleeper Sleeper, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithBackups(backups),
		WithSleeper(sleeper),
		WithLogger(log.New(io.Discard, "", 0)),
	}
	return NewClient(primary, append(base, opts...)...)
}

func writeResult(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"result":  result,
	})
}

// countingServer answers every request with handler and counts hits.
func countingServer(t *testing.T, name string, log *eventLog, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if log != nil {
			log.add("req:" + name)
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func failing(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

func succeeding(result interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, result)
	}
}

func TestClient_RequestEnvelope(t *testing.T) {
	var got rpcRequest
	srv, _ := countingServer(t, "a", nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeResult(w, map[string]interface{}{"value": map[string]interface{}{"amount": "5", "decimals": 0}})
	})

	client := newTestClient(srv.URL, nil, &eventLog{})
	_, err := client.GetTokenSupply(context.Background(), "mint1")
	require.NoError(t, err)

	assert.Equal(t, "2.0", got.JSONRPC)
	assert.Equal(t, uint64(1), got.ID)
	assert.Equal(t, "getTokenSupply", got.Method)
	assert.Equal(t, []interface{}{"mint1"}, got.Params)
}

func TestClient_EmptyParamsEncodedAsArray(t *testing.T) {
	var raw map[string]json.RawMessage
	srv, _ := countingServer(t, "a", nil, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		writeResult(w, 1)
	})

	client := newTestClient(srv.URL, nil, &eventLog{})
	_, err := client.Call(context.Background(), "getSlot", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw["params"]))
}

func TestClient_ExhaustsEveryEndpointOnEveryAttempt(t *testing.T) {
	events := &eventLog{}
	a, hitsA := countingServer(t, "a", events, failing(http.StatusInternalServerError))
	b, hitsB := countingServer(t, "b", events, failing(http.StatusBadGateway))
	c, hitsC := countingServer(t, "c", events, failing(http.StatusServiceUnavailable))

	client := newTestClient(a.URL, []string{b.URL, c.URL}, events)

	_, err := client.Call(context.Background(), "getTokenSupply", []interface{}{"mint"})
	require.Error(t, err)

	assert.Equal(t, int32(DefaultMaxAttempts), hitsA.Load())
	assert.Equal(t, int32(DefaultMaxAttempts), hitsB.Load())
	assert.Equal(t, int32(DefaultMaxAttempts), hitsC.Load())
	assert.Equal(t, 3*DefaultMaxAttempts, int(hitsA.Load()+hitsB.Load()+hitsC.Load()))

	// Only the last error survives aggregation.
	var exhausted *EndpointsExhaustedError
	require.True(t, errors.As(err, &exhausted))
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "all RPC endpoints failed")

	// Primary is untouched when nothing succeeded.
	assert.Equal(t, a.URL, client.Primary())
}

func TestClient_StopsAtFirstSuccessfulEndpoint(t *testing.T) {
	events := &eventLog{}
	a, hitsA := countingServer(t, "a", events, failing(http.StatusTooManyRequests))
	b, hitsB := countingServer(t, "b", events, succeeding(42))
	c, hitsC := countingServer(t, "c", events, succeeding(7))

	client := newTestClient(a.URL, []string{b.URL, c.URL}, events)

	raw, err := client.Call(context.Background(), "getSlot", nil)
	require.NoError(t, err)
	assert.JSONEq(t, "42", string(raw))

	assert.Equal(t, int32(1), hitsA.Load())
	assert.Equal(t, int32(1), hitsB.Load())
	assert.Equal(t, int32(0), hitsC.Load())
	assert.Equal(t, b.URL, client.Primary())

	// Sticky primary: the next call starts at b and never reaches a.
	_, err = client.Call(context.Background(), "getSlot", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hitsA.Load())
	assert.Equal(t, int32(2), hitsB.Load())
	assert.Equal(t, []string{b.URL, b.URL, c.URL}, client.Endpoints())
}

func TestClient_RateLimitDelayBeforeEveryAttempt(t *testing.T) {
	events := &eventLog{}
	a, _ := countingServer(t, "a", events, failing(http.StatusInternalServerError))
	b, _ := countingServer(t, "b", events, succeeding(1))

	delay := 250 * time.Millisecond
	client := newTestClient(a.URL, []string{b.URL}, events, WithRateLimitDelay(delay))

	_, err := client.Call(context.Background(), "getSlot", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"sleep:250ms", "req:a",
		"sleep:250ms", "req:b",
	}, events.snapshot())
}

func TestClient_BackoffBetweenPasses(t *testing.T) {
	events := &eventLog{}
	a, _ := countingServer(t, "a", events, failing(http.StatusInternalServerError))

	client := newTestClient(a.URL, nil, events,
		WithRateLimitDelay(100*time.Millisecond),
		WithRetryPolicy(RetryPolicy{
			MaxAttempts: 3,
			Backoff:     ExponentialBackoff(time.Second, 10*time.Second, 2),
		}),
	)

	_, err := client.Call(context.Background(), "getSlot", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")

	assert.Equal(t, []string{
		"sleep:100ms", "req:a",
		"sleep:1s",
		"sleep:100ms", "req:a",
		"sleep:2s",
		"sleep:100ms", "req:a",
	}, events.snapshot())
}

func TestClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeResult(w, int64(999))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil, &eventLog{})

	raw, err := client.Call(context.Background(), "getSlot", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	if string(raw) != "999" {
		t.Errorf("expected 999, got %s", raw)
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestClient_RPCErrorFailsOver(t *testing.T) {
	events := &eventLog{}
	a, _ := countingServer(t, "a", events, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"error": map[string]interface{}{
				"code":    -32600,
				"message": "Invalid Request",
			},
		})
	})
	b, hitsB := countingServer(t, "b", events, succeeding("ok"))

	client := newTestClient(a.URL, []string{b.URL}, events)

	raw, err := client.Call(context.Background(), "getHealth", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"ok"`, string(raw))
	assert.Equal(t, int32(1), hitsB.Load())
}

func TestClient_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"error": map[string]interface{}{
				"code":    -32602,
				"message": "Invalid param: WrongSize",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil, &eventLog{})

	_, err := client.GetTokenSupply(context.Background(), "bad")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T", err)
	}

	if rpcErr.Code != -32602 {
		t.Errorf("expected code -32602, got %d", rpcErr.Code)
	}
	if !IsRPCError(err) {
		t.Error("IsRPCError returned false")
	}
}

func TestClient_ErrorMemberShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "null error is success", body: `{"jsonrpc":"2.0","id":1,"result":5,"error":null}`},
		{name: "missing error is success", body: `{"jsonrpc":"2.0","id":1,"result":5}`},
		{name: "string error", body: `{"jsonrpc":"2.0","id":1,"error":"rate limited"}`, wantErr: true},
		{name: "object error", body: `{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"busy"}}`, wantErr: true},
		{name: "invalid json", body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := countingServer(t, "a", nil, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			client := newTestClient(srv.URL, nil, &eventLog{}, WithRetryPolicy(RetryPolicy{MaxAttempts: 1}))

			_, err := client.Call(context.Background(), "getSlot", nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClient_TransportErrorFailsOver(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	b, hitsB := countingServer(t, "b", nil, succeeding(1))

	client := newTestClient(deadURL, []string{b.URL}, &eventLog{})
	_, err := client.Call(context.Background(), "getSlot", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hitsB.Load())
	assert.Equal(t, b.URL, client.Primary())
}

func TestClient_Timeout(t *testing.T) {
	slow, _ := countingServer(t, "slow", nil, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		writeResult(w, 1)
	})
	fast, _ := countingServer(t, "fast", nil, succeeding(2))

	client := newTestClient(slow.URL, []string{fast.URL}, &eventLog{}, WithTimeout(50*time.Millisecond))
	raw, err := client.Call(context.Background(), "getSlot", nil)
	require.NoError(t, err)
	assert.JSONEq(t, "2", string(raw))
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithBackups(nil), WithLogger(log.New(io.Discard, "", 0)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.Call(ctx, "getSlot", nil)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(time.Second, 10*time.Second, 2)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, backoff(i+1), "attempt %d", i+1)
	}
	assert.Equal(t, time.Second, backoff(0))
}

func TestRetryPolicy_Do(t *testing.T) {
	t.Run("succeeds after failures", func(t *testing.T) {
		sleeper := &eventLog{}
		var calls int
		err := RetryPolicy{MaxAttempts: 3, Backoff: ExponentialBackoff(time.Second, time.Minute, 2)}.
			Do(context.Background(), sleeper, func(ctx context.Context, attempt int) error {
				calls++
				if attempt < 3 {
					return errors.New("transient")
				}
				return nil
			})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.sleeps)
	})

	t.Run("wraps last error", func(t *testing.T) {
		last := errors.New("third")
		var n int
		err := RetryPolicy{MaxAttempts: 3}.Do(context.Background(), &eventLog{}, func(ctx context.Context, attempt int) error {
			n++
			if n == 3 {
				return last
			}
			return errors.New("earlier")
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, last)
		assert.Equal(t, "failed after 3 attempts: third", err.Error())
	})

	t.Run("context errors are not retried", func(t *testing.T) {
		var calls int
		err := RetryPolicy{MaxAttempts: 5}.Do(context.Background(), &eventLog{}, func(ctx context.Context, attempt int) error {
			calls++
			return fmt.Errorf("wrapped: %w", context.Canceled)
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("OnRetry sees each failure", func(t *testing.T) {
		var seen []int
		_ = RetryPolicy{
			MaxAttempts: 3,
			Backoff:     func(int) time.Duration { return time.Millisecond },
			OnRetry:     func(attempt int, _ time.Duration, _ error) { seen = append(seen, attempt) },
		}.Do(context.Background(), &eventLog{}, func(ctx context.Context, attempt int) error {
			return errors.New("x")
		})
		assert.Equal(t, []int{1, 2}, seen)
	})
}

func TestRealSleeper_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := RealSleeper{}.Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
