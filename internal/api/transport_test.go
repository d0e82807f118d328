package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoRefreshToken = errors.New("no refresh token")

// fakeCreds is an in-memory Credentials implementation.
type fakeCreds struct {
	mu      sync.Mutex
	token   string
	refresh string
	next    string
	delay   time.Duration
	expired []error

	refreshCalls atomic.Int32
}

func (f *fakeCreds) AccessToken() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, nil
}

func (f *fakeCreds) RefreshAccessToken(ctx context.Context) (string, error) {
	f.refreshCalls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refresh == "" {
		return "", errNoRefreshToken
	}
	f.token = f.next
	return f.next, nil
}

func (f *fakeCreds) Expire(cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.refresh = "", ""
	f.expired = append(f.expired, cause)
}

func (f *fakeCreds) expiredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.expired)
}

// tokenServer accepts only "Bearer <valid>" and records what it saw.
type tokenServer struct {
	*httptest.Server
	valid string

	mu      sync.Mutex
	headers []string
	bodies  []string
	hits    atomic.Int32
}

func newTokenServer(t *testing.T, valid string) *tokenServer {
	ts := &tokenServer{valid: valid}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		ts.mu.Lock()
		ts.headers = append(ts.headers, r.Header.Get("Authorization"))
		ts.bodies = append(ts.bodies, string(body))
		ts.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == LoginPath || r.URL.Path == RegisterPath:
			json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path})
		case r.Header.Get("Authorization") != "Bearer "+ts.valid:
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
		case r.URL.Path == "/api/broken":
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "database unavailable"})
		default:
			json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) seenHeaders() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.headers...)
}

func newTestClient(ts *tokenServer, creds Credentials, opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithBaseURL(ts.URL), WithRateLimit(0), WithCredentials(creds)}, opts...)
	return NewClient(opts...)
}

func TestAuthEndpointsCarryNoAuthorization(t *testing.T) {
	ts := newTokenServer(t, "good")
	creds := &fakeCreds{token: "good"}
	client := newTestClient(ts, creds)

	var out map[string]string
	require.NoError(t, client.Post(context.Background(), LoginPath, map[string]string{"email": "a@b.c"}, &out))
	require.NoError(t, client.Post(context.Background(), RegisterPath, map[string]string{"email": "a@b.c"}, &out))

	assert.Equal(t, []string{"", ""}, ts.seenHeaders())
}

func TestBearerTokenAttached(t *testing.T) {
	ts := newTokenServer(t, "good")
	client := newTestClient(ts, &fakeCreds{token: "good"})

	var out map[string]string
	require.NoError(t, client.Get(context.Background(), "/api/categories", nil, &out))

	assert.Equal(t, []string{"Bearer good"}, ts.seenHeaders())
	assert.Equal(t, "yes", out["ok"])
}

func TestNoTokenRefusesWithoutSending(t *testing.T) {
	ts := newTokenServer(t, "good")
	var loginRequests atomic.Int32
	client := newTestClient(ts, &fakeCreds{}, WithLoginRequired(func() { loginRequests.Add(1) }))

	err := client.Post(context.Background(), "/api/expenses", map[string]int{"pageNumber": 1}, nil)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Zero(t, ts.hits.Load(), "request must not reach the server")
	assert.Equal(t, int32(1), loginRequests.Load())
}

func TestTransportLoginRequiredOption(t *testing.T) {
	ts := newTokenServer(t, "good")
	var loginRequests atomic.Int32
	tr := NewAuthTransport(&fakeCreds{}, WithTransportLoginRequired(func() { loginRequests.Add(1) }))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/categories", http.NoBody)
	require.NoError(t, err)
	resp, err := tr.RoundTrip(req)
	if resp != nil {
		resp.Body.Close()
	}
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Zero(t, ts.hits.Load())
	assert.Equal(t, int32(1), loginRequests.Load())
}

func TestUnauthorizedRefreshesAndRetriesOnce(t *testing.T) {
	ts := newTokenServer(t, "fresh")
	creds := &fakeCreds{token: "stale", refresh: "r1", next: "fresh"}
	client := newTestClient(ts, creds)

	var out map[string]string
	err := client.Post(context.Background(), "/api/expenses", map[string]int{"pageNumber": 2}, &out)
	require.NoError(t, err)

	assert.Equal(t, int32(1), creds.refreshCalls.Load())
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, ts.seenHeaders())
	assert.Equal(t, ts.bodies[0], ts.bodies[1], "retried body must match the original")
	assert.JSONEq(t, `{"pageNumber":2}`, ts.bodies[1])
	assert.Equal(t, StateIdle, client.Transport().State())
}

func TestUnauthorizedWithoutRefreshTokenExpiresSession(t *testing.T) {
	ts := newTokenServer(t, "fresh")
	creds := &fakeCreds{token: "stale"}
	client := newTestClient(ts, creds)

	err := client.Get(context.Background(), "/api/UserProfile", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.ErrorIs(t, err, errNoRefreshToken)

	assert.Equal(t, int32(1), ts.hits.Load(), "no retry after a failed refresh")
	assert.Equal(t, 1, creds.expiredCount())
	assert.Equal(t, StateFailed, client.Transport().State())

	token, _ := creds.AccessToken()
	assert.Empty(t, token, "session must be cleared")
}

func TestFailedStateResetsOnNextAuthenticatedRequest(t *testing.T) {
	ts := newTokenServer(t, "fresh")
	creds := &fakeCreds{token: "stale"}
	client := newTestClient(ts, creds)

	_ = client.Get(context.Background(), "/api/UserProfile", nil, nil)
	require.Equal(t, StateFailed, client.Transport().State())

	// Still no token: refused, state unchanged
	err := client.Get(context.Background(), "/api/UserProfile", nil, nil)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, StateFailed, client.Transport().State())

	// Logging in again stores a token
	creds.mu.Lock()
	creds.token = "fresh"
	creds.mu.Unlock()

	require.NoError(t, client.Get(context.Background(), "/api/UserProfile", nil, nil))
	assert.Equal(t, StateIdle, client.Transport().State())
}

func TestRetryUnauthorizedIsReturned(t *testing.T) {
	ts := newTokenServer(t, "never")
	creds := &fakeCreds{token: "stale", refresh: "r1", next: "also-bad"}
	client := newTestClient(ts, creds)

	err := client.Get(context.Background(), "/api/categories", nil, nil)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(2), ts.hits.Load(), "exactly one retry")
	assert.Equal(t, int32(1), creds.refreshCalls.Load())
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	ts := newTokenServer(t, "fresh")
	creds := &fakeCreds{token: "stale", refresh: "r1", next: "fresh", delay: 50 * time.Millisecond}
	client := newTestClient(ts, creds)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Get(context.Background(), "/api/categories", nil, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), creds.refreshCalls.Load())
	for _, h := range ts.seenHeaders() {
		assert.Contains(t, []string{"Bearer stale", "Bearer fresh"}, h)
	}
}

func TestStaleTokenRetriedWithoutRefresh(t *testing.T) {
	creds := &fakeCreds{token: "stale", refresh: "r1", next: "fresh"}
	transport := NewAuthTransport(creds, WithBase(http.DefaultTransport))

	// The stored token moved on while the request was in flight
	creds.mu.Lock()
	creds.token = "fresh"
	creds.mu.Unlock()

	token, err := transport.refresh(context.Background(), "stale")
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Zero(t, creds.refreshCalls.Load())
}

func TestOtherStatusesPassThrough(t *testing.T) {
	ts := newTokenServer(t, "good")
	creds := &fakeCreds{token: "good", refresh: "r1", next: "other"}
	client := newTestClient(ts, creds)

	err := client.Get(context.Background(), "/api/broken", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "database unavailable", apiErr.Message)
	assert.Equal(t, "/api/broken", apiErr.Endpoint)
	assert.Zero(t, creds.refreshCalls.Load())
}

func TestNonReplayableBodyIsNotRetried(t *testing.T) {
	ts := newTokenServer(t, "fresh")
	creds := &fakeCreds{token: "stale", refresh: "r1", next: "fresh"}
	transport := NewAuthTransport(creds)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/expenses", io.NopCloser(stringsReader(`{"a":1}`)))
	require.NoError(t, err)
	require.Nil(t, req.GetBody)

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), ts.hits.Load())
	assert.Equal(t, int32(1), creds.refreshCalls.Load(), "session is still refreshed for later requests")
}

func TestTransportMetrics(t *testing.T) {
	ts := newTokenServer(t, "fresh")
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	creds := &fakeCreds{token: "stale", refresh: "r1", next: "fresh"}
	client := newTestClient(ts, creds, WithMetrics(metrics))

	require.NoError(t, client.Get(context.Background(), "/api/categories", nil, nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.refreshes.WithLabelValues(refreshSuccess)))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "refreshing", StateRefreshing.String())
	assert.Equal(t, "failed", StateFailed.String())
}
