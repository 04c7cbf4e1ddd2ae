// Package api provides the HTTP client core for the ResumeForge backend:
// bearer-token injection, uniform error decoding, 401 session teardown, and
// the rate-limit-aware request path used by gated features.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the backend API root used when no override is supplied.
const DefaultBaseURL = "http://localhost:8000/api"

// DefaultTimeout bounds every request issued by the client.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DefaultOptions returns sensible defaults for talking to a local backend.
func DefaultOptions() *Options {
	return &Options{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// Client issues JSON requests against the ResumeForge backend. The token
// source and unauthorized handler are wired in by the session store; the
// client itself holds no session state.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *slog.Logger
	tokenSource    func() string
	onUnauthorized func()
}

// New creates a Client. A nil opts uses DefaultOptions.
func New(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// SetTokenSource registers the callback that supplies the current bearer
// token. An empty return value means no session.
func (c *Client) SetTokenSource(fn func() string) {
	c.tokenSource = fn
}

// SetUnauthorizedHandler registers the callback invoked when the backend
// answers 401 to an authenticated call.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do issues an authenticated JSON request. It fails fast with ErrNoToken
// when no token is available, without touching the network. A 401 response
// triggers the unauthorized handler and returns ErrAuthExpired. Other
// non-2xx statuses decode into *APIError. When out is non-nil the response
// body is decoded into it.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	token := c.currentToken()
	if token == "" {
		return ErrNoToken
	}
	return c.roundTrip(ctx, method, path, token, body, out, false)
}

// DoGated is Do for plan-gated endpoints: an HTTP 429 is converted into a
// *RateLimitError carrying the backend's structured limit detail instead of
// a plain APIError.
func (c *Client) DoGated(ctx context.Context, method, path string, body, out any) error {
	token := c.currentToken()
	if token == "" {
		return ErrNoToken
	}
	return c.roundTrip(ctx, method, path, token, body, out, true)
}

// DoPublic issues an unauthenticated JSON request (template and plan
// listings do not require a session).
func (c *Client) DoPublic(ctx context.Context, method, path string, body, out any) error {
	return c.roundTrip(ctx, method, path, "", body, out, false)
}

// DoWithToken issues an authenticated request with an explicit token,
// bypassing the token source. Used by the session store during the two-step
// login, before any session state is committed.
func (c *Client) DoWithToken(ctx context.Context, method, path, token string, body, out any) error {
	if token == "" {
		return ErrNoToken
	}
	return c.roundTrip(ctx, method, path, token, body, out, false)
}

// PostForm posts form-encoded values (the OAuth2 login endpoint) without
// authentication and decodes the JSON response into out.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{URL: endpoint, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{URL: endpoint, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data, false)
	}
	return decodeBody(data, out)
}

// Payload is a binary download result.
type Payload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Download fetches a binary payload from an authenticated endpoint. The
// suggested filename comes from Content-Disposition when present.
func (c *Client) Download(ctx context.Context, path string) (*Payload, error) {
	token := c.currentToken()
	if token == "" {
		return nil, ErrNoToken
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: endpoint, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: endpoint, Cause: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(endpoint)
		return nil, ErrAuthExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, data, false)
	}

	return &Payload{
		Data:        data,
		Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, body, out any, gated bool) error {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{URL: endpoint, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{URL: endpoint, Cause: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		c.handleUnauthorized(endpoint)
		return ErrAuthExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data, gated)
	}
	return decodeBody(data, out)
}

func (c *Client) currentToken() string {
	if c.tokenSource == nil {
		return ""
	}
	return c.tokenSource()
}

func (c *Client) handleUnauthorized(endpoint string) {
	c.logger.Warn("session rejected by backend", slog.String("url", endpoint))
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func decodeBody(data []byte, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError converts a non-2xx body into the appropriate typed error. The
// backend wraps messages as {"detail": ...} where detail is a string for
// ordinary errors and a structured object on 429.
func decodeError(status int, data []byte, gated bool) error {
	if gated && status == http.StatusTooManyRequests {
		var envelope struct {
			Detail RateLimitDetail `json:"detail"`
		}
		if err := json.Unmarshal(data, &envelope); err == nil {
			return &RateLimitError{Detail: envelope.Detail}
		}
		return &RateLimitError{Detail: RateLimitDetail{Message: "rate limit exceeded"}}
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	detail := ""
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			detail = s
		} else {
			detail = string(envelope.Detail)
		}
	}
	return &APIError{Status: status, Detail: detail}
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
