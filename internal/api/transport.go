package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"expense-tracker-client/internal/common"
)

// Paths that never carry credentials.
const (
	LoginPath    = "/api/Auth/login"
	RegisterPath = "/api/Auth/register"
)

// Credentials supplies and renews the access token used by AuthTransport.
type Credentials interface {
	// AccessToken returns the stored access token, or "" when there is none.
	AccessToken() (string, error)
	// RefreshAccessToken exchanges the stored refresh token for a new access token.
	RefreshAccessToken(ctx context.Context) (string, error)
	// Expire ends the session after an unrecoverable 401.
	Expire(cause error)
}

// State is the refresh state of an AuthTransport.
type State int32

const (
	StateIdle State = iota
	StateRefreshing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// AuthTransport attaches bearer tokens and recovers from a single 401 by refreshing the session.
type AuthTransport struct {
	base          http.RoundTripper
	creds         Credentials
	logger        *common.Logger
	metrics       *Metrics
	loginRequired func()

	state  atomic.Int32
	flight singleflight.Group
}

// TransportOption configures an AuthTransport.
type TransportOption func(*AuthTransport)

// WithBase sets the underlying round tripper.
func WithBase(rt http.RoundTripper) TransportOption {
	return func(t *AuthTransport) {
		t.base = rt
	}
}

// WithTransportLogger sets the logger.
func WithTransportLogger(logger *common.Logger) TransportOption {
	return func(t *AuthTransport) {
		t.logger = logger
	}
}

// WithTransportMetrics records requests and refreshes.
func WithTransportMetrics(m *Metrics) TransportOption {
	return func(t *AuthTransport) {
		t.metrics = m
	}
}

// WithTransportLoginRequired registers fn to be called when a request is refused for lack of a token.
func WithTransportLoginRequired(fn func()) TransportOption {
	return func(t *AuthTransport) {
		t.loginRequired = fn
	}
}

// NewAuthTransport creates a transport that authenticates requests with creds.
func NewAuthTransport(creds Credentials, opts ...TransportOption) *AuthTransport {
	t := &AuthTransport{
		base:   http.DefaultTransport,
		creds:  creds,
		logger: common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current refresh state.
func (t *AuthTransport) State() State {
	return State(t.state.Load())
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if isAuthEndpoint(req.URL.Path) {
		return t.send(req)
	}

	token, err := t.creds.AccessToken()
	if err != nil {
		closeBody(req)
		return nil, fmt.Errorf("read access token: %w", err)
	}
	if token == "" {
		closeBody(req)
		t.logger.Debug().Str("path", req.URL.Path).Msg("No access token, login required")
		if t.loginRequired != nil {
			t.loginRequired()
		}
		return nil, ErrAuthenticationRequired
	}

	// A fresh token after a failed refresh starts a new cycle.
	t.state.CompareAndSwap(int32(StateFailed), int32(StateIdle))

	resp, err := t.send(withBearer(req, token))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	replay := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil

	newToken, err := t.refresh(req.Context(), token)
	if err != nil {
		drain(resp)
		return nil, err
	}
	if !replay {
		t.logger.Warn().Str("path", req.URL.Path).Msg("Request body cannot be replayed, returning 401")
		return resp, nil
	}
	drain(resp)

	retry, err := rewind(req)
	if err != nil {
		return nil, err
	}
	t.logger.Debug().Str("path", req.URL.Path).Msg("Retrying request with refreshed token")
	return t.send(withBearer(retry, newToken))
}

func (t *AuthTransport) send(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	code := 0
	if resp != nil {
		code = resp.StatusCode
	}
	t.metrics.observeRequest(req.Method, code, err)
	return resp, err
}

// refresh coalesces concurrent 401s into one refresh. stale is the token the
// failed request carried; if the stored token has moved on, it is reused.
func (t *AuthTransport) refresh(ctx context.Context, stale string) (string, error) {
	ch := t.flight.DoChan("refresh", func() (any, error) {
		current, err := t.creds.AccessToken()
		if err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}
		if current == "" {
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, ErrAuthenticationRequired)
		}
		if current != stale {
			t.metrics.observeRefresh(refreshReused)
			return current, nil
		}

		t.state.Store(int32(StateRefreshing))
		t.logger.Debug().Msg("Access token rejected, refreshing session")

		token, err := t.creds.RefreshAccessToken(context.WithoutCancel(ctx))
		if err != nil {
			t.state.Store(int32(StateFailed))
			t.metrics.observeRefresh(refreshFailure)
			t.logger.Warn().Err(err).Msg("Session refresh failed")
			t.creds.Expire(err)
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}

		t.state.Store(int32(StateIdle))
		t.metrics.observeRefresh(refreshSuccess)
		t.logger.Info().Msg("Session refreshed")
		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func isAuthEndpoint(path string) bool {
	path = strings.TrimSuffix(path, "/")
	return hasSuffixFold(path, LoginPath) || hasSuffixFold(path, RegisterPath)
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// withBearer returns a copy of req carrying token. The original is left untouched.
func withBearer(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+token)
	return out
}

// rewind returns a copy of req with a fresh body.
func rewind(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		out.Body = body
	}
	return out, nil
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		req.Body.Close()
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
