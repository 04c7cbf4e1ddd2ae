package api

import (
	"errors"
	"fmt"
)

// ErrNoToken indicates an authenticated call was attempted with no token
// present. The request is never issued in this case.
var ErrNoToken = errors.New("no authentication token")

// ErrAuthExpired indicates the backend rejected the token (HTTP 401). The
// client has already torn down the local session by the time this is
// returned.
var ErrAuthExpired = errors.New("authentication expired")

// APIError is a non-2xx application response carrying the backend-supplied
// detail message.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// TransportError wraps a network-level failure (connection refused, DNS,
// context cancellation) where no HTTP response was received.
type TransportError struct {
	URL   string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// UsageNumbers holds the counters reported alongside a rate-limit rejection.
type UsageNumbers struct {
	CallsUsed      int `json:"calls_used"`
	CallsLimit     int `json:"calls_limit"`
	CallsRemaining int `json:"calls_remaining"`
	CVsUsed        int `json:"cvs_used"`
	CVsLimit       int `json:"cvs_limit"`
	CVsRemaining   int `json:"cvs_remaining"`
}

// RateLimitDetail is the machine-readable limit-exceeded payload the backend
// attaches to HTTP 429 responses.
type RateLimitDetail struct {
	Message        string       `json:"message"`
	Plan           string       `json:"plan"`
	UpgradeNeeded  bool         `json:"upgrade_needed"`
	UpgradeMessage string       `json:"upgrade_message,omitempty"`
	ResetInfo      string       `json:"reset_info,omitempty"`
	CurrentUsage   UsageNumbers `json:"current_usage"`
}

// RateLimitError is the uniform limit-exceeded signal produced by gated
// calls on HTTP 429, distinct from ordinary APIErrors.
type RateLimitError struct {
	Detail RateLimitDetail
}

func (e *RateLimitError) Error() string {
	if e.Detail.Message != "" {
		return fmt.Sprintf("limit exceeded: %s", e.Detail.Message)
	}
	return "limit exceeded"
}

// IsRateLimit reports whether err is a rate/quota failure.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}
