package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumeforge/resumeforge-go/internal/api"
	"github.com/resumeforge/resumeforge-go/internal/app"
	"github.com/resumeforge/resumeforge-go/internal/storage"
	"github.com/resumeforge/resumeforge-go/internal/types"
)

// newGatedApp wires an app against a backend that serves the given usage
// counters, or fails the usage endpoint when usageStatus is not 200.
func newGatedApp(t *testing.T, usage types.Usage, usageStatus int) *app.App {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /subscription/usage", func(w http.ResponseWriter, r *http.Request) {
		if usageStatus != http.StatusOK {
			w.WriteHeader(usageStatus)
			_, _ = w.Write([]byte(`{"detail": "usage unavailable"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(types.UsageResponse{Success: true, Usage: usage})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	a := app.New(app.Options{BaseURL: server.URL, Backend: storage.NewMemory()})
	a.Session.Token.Set("test-token")
	return a
}

func TestPreflightLLM_DeniesAtQuota(t *testing.T) {
	a := newGatedApp(t, types.Usage{
		APICalls: types.Quota{Used: 100, Limit: 100},
		CVs:      types.Quota{Used: 1, Limit: 10, Remaining: 9},
	}, http.StatusOK)

	err := preflightLLM(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Daily AI request limit reached")
}

func TestPreflightLLM_AllowsUnderQuota(t *testing.T) {
	a := newGatedApp(t, types.Usage{
		APICalls: types.Quota{Used: 10, Limit: 100, Remaining: 90},
		CVs:      types.Quota{Used: 1, Limit: 10, Remaining: 9},
	}, http.StatusOK)

	require.NoError(t, preflightLLM(context.Background(), a))
}

func TestPreflightLLM_FallsThroughWhenUsageUnavailable(t *testing.T) {
	a := newGatedApp(t, types.Usage{}, http.StatusInternalServerError)

	// The backend still enforces the quota; the preflight only exists to
	// improve the error message, so a failed load must not block the call.
	require.NoError(t, preflightLLM(context.Background(), a))
}

func TestPreflightCVCreate_DeniesAtQuota(t *testing.T) {
	a := newGatedApp(t, types.Usage{
		APICalls: types.Quota{Used: 10, Limit: 100, Remaining: 90},
		CVs:      types.Quota{Used: 10, Limit: 10},
	}, http.StatusOK)

	err := preflightCVCreate(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CV limit reached")
}

func TestQuotaError_AdoptsRateLimitCounters(t *testing.T) {
	a := app.New(app.Options{BaseURL: "http://127.0.0.1:1", Backend: storage.NewMemory()})

	rle := &api.RateLimitError{Detail: api.RateLimitDetail{
		Message:   "Daily limit reached",
		ResetInfo: "Resets at midnight UTC",
		CurrentUsage: api.UsageNumbers{
			CallsUsed: 100, CallsLimit: 100,
			CVsUsed: 3, CVsLimit: 10,
		},
	}}

	err := quotaError(a, rle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Daily limit reached")
	assert.Contains(t, err.Error(), "Resets at midnight UTC")

	usage := a.Subscription.Usage.Get()
	require.NotNil(t, usage)
	assert.Equal(t, 100, usage.APICalls.Used)
	assert.Equal(t, 0, usage.APICalls.Remaining)
	assert.Equal(t, 7, usage.CVs.Remaining)
	assert.Equal(t, "Resets at midnight UTC", usage.ResetInfo)
}

func TestQuotaError_PassesThroughOtherErrors(t *testing.T) {
	a := app.New(app.Options{BaseURL: "http://127.0.0.1:1", Backend: storage.NewMemory()})

	err := quotaError(a, assert.AnError)
	assert.Equal(t, assert.AnError, err)
	assert.Nil(t, a.Subscription.Usage.Get())
}
