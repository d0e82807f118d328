// Package api provides the HTTP client for the expense tracker REST API.
package api

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

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"expense-tracker-client/internal/common"
)

const (
	DefaultBaseURL   = "http://localhost:5000"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second

	maxErrorBody = 64 << 10
)

// Client talks JSON and multipart to the API.
type Client struct {
	baseURL       string
	userAgent     string
	httpClient    *http.Client
	logger        *common.Logger
	limiter       *rate.Limiter
	metrics       *Metrics
	creds         Credentials
	loginRequired func()
	transport     *AuthTransport
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit. Zero disables limiting.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its transport becomes the base of the auth transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMetrics records request and refresh counters.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithCredentials authenticates every request through an AuthTransport.
func WithCredentials(creds Credentials) ClientOption {
	return func(c *Client) {
		c.creds = creds
	}
}

// WithLoginRequired registers fn to be called when a protected request has no token.
func WithLoginRequired(fn func()) ClientOption {
	return func(c *Client) {
		c.loginRequired = fn
	}
}

// NewClient creates a new API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: "expensectl/" + common.Version,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.creds != nil {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		topts := []TransportOption{
			WithBase(base),
			WithTransportLogger(c.logger),
			WithTransportMetrics(c.metrics),
		}
		if c.loginRequired != nil {
			topts = append(topts, WithTransportLoginRequired(c.loginRequired))
		}
		c.transport = NewAuthTransport(c.creds, topts...)
		hc := *c.httpClient
		hc.Transport = c.transport
		c.httpClient = &hc
	}

	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Transport returns the auth transport, or nil for an unauthenticated client.
func (c *Client) Transport() *AuthTransport {
	return c.transport
}

// Get performs a GET and decodes the response into result.
func (c *Client) Get(ctx context.Context, path string, query url.Values, result any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, result)
}

// Post sends body as JSON and decodes the response into result.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, result)
}

// Put sends body as JSON and decodes the response into result.
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, result)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do performs a JSON request. A nil body sends no payload; a nil result discards the response.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var payload io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, payload, contentType, result)
}

// Multipart sends form as multipart/form-data and decodes the response into result.
func (c *Client) Multipart(ctx context.Context, method, path string, form *Form, result any) error {
	buf, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("failed to encode form: %w", err)
	}
	return c.do(ctx, method, path, nil, bytes.NewReader(buf.Bytes()), contentType, result)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload io.Reader, contentType string, result any) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug().Str("method", method).Str("url", path).Str("request_id", requestID).Msg("API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("url", path).Dur("elapsed", elapsed).Msg("API request failed")
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if c.transport == nil {
		c.metrics.observeRequest(method, resp.StatusCode, nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Endpoint:   path,
			Message:    errorMessage(body),
		}
		c.logger.Warn().Str("method", method).Str("url", path).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("API non-OK response")
		return apiErr
	}

	c.logger.Debug().Str("method", method).Str("url", path).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("API call")

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if v, ok := result.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	return nil
}
