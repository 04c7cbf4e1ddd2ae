package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(&Options{BaseURL: srv.URL})
}

func TestDo_NoTokenFailsWithoutNetworkCall(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	client.SetTokenSource(func() string { return "" })

	err := client.Do(context.Background(), http.MethodGet, "/cvs/", nil, nil)
	require.ErrorIs(t, err, ErrNoToken)
	assert.False(t, called, "no request must be issued when the token is absent")
}

func TestDo_InjectsBearerHeader(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	})
	client.SetTokenSource(func() string { return "tok-123" })

	var out map[string]string
	err := client.Do(context.Background(), http.MethodGet, "/cvs/", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "yes", out["ok"])
}

func TestDo_UnauthorizedTriggersTeardown(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client.SetTokenSource(func() string { return "stale" })

	tornDown := false
	client.SetUnauthorizedHandler(func() { tornDown = true })

	err := client.Do(context.Background(), http.MethodGet, "/auth/me", nil, nil)
	require.ErrorIs(t, err, ErrAuthExpired)
	assert.True(t, tornDown, "401 must invoke the unauthorized handler")
}

func TestDo_DecodesBackendDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Email already registered"}`))
	})
	client.SetTokenSource(func() string { return "tok" })

	err := client.Do(context.Background(), http.MethodPost, "/auth/register", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Email already registered", apiErr.Detail)
}

func TestDoGated_ConvertsRateLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail": {
			"message": "Daily API limit reached",
			"plan": "Free",
			"upgrade_needed": true,
			"current_usage": {"calls_used": 5, "calls_limit": 5, "calls_remaining": 0}
		}}`))
	})
	client.SetTokenSource(func() string { return "tok" })

	err := client.DoGated(context.Background(), http.MethodPost, "/llm/chat", nil, nil)
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.True(t, IsRateLimit(err))
	assert.Equal(t, "Daily API limit reached", rle.Detail.Message)
	assert.True(t, rle.Detail.UpgradeNeeded)
	assert.Equal(t, 5, rle.Detail.CurrentUsage.CallsUsed)
	assert.Equal(t, 0, rle.Detail.CurrentUsage.CallsRemaining)
}

func TestDo_PlainClientKeeps429AsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail": {"message": "slow down"}}`))
	})
	client.SetTokenSource(func() string { return "tok" })

	err := client.Do(context.Background(), http.MethodPost, "/llm/chat", nil, nil)
	assert.False(t, IsRateLimit(err), "only the gated path produces RateLimitError")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestPostForm_SendsFormEncoded(t *testing.T) {
	var gotContentType, gotUsername string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotUsername = r.PostFormValue("username")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "token_type": "bearer"})
	})

	form := url.Values{}
	form.Set("username", "a@b.com")
	form.Set("password", "pw")

	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := client.PostForm(context.Background(), "/auth/login", form, &out)
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "a@b.com", gotUsername)
	assert.Equal(t, "tok", out.AccessToken)
}

func TestDownload_ReturnsPayloadWithFilename(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="my_cv.pdf"`)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	})
	client.SetTokenSource(func() string { return "tok" })

	payload, err := client.Download(context.Background(), "/cvs/abc/pdf")
	require.NoError(t, err)
	assert.Equal(t, "my_cv.pdf", payload.Filename)
	assert.Equal(t, "application/pdf", payload.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), payload.Data)
}

func TestDownload_NoToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not be called")
	})
	_, err := client.Download(context.Background(), "/cvs/abc/pdf")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestDoPublic_NoAuthHeader(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	var out []any
	err := client.DoPublic(context.Background(), http.MethodGet, "/templates/", nil, &out)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestTransportError_Unwrap(t *testing.T) {
	client := New(&Options{BaseURL: "http://127.0.0.1:1"})
	client.SetTokenSource(func() string { return "tok" })

	err := client.Do(context.Background(), http.MethodGet, "/cvs/", nil, nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Error(t, te.Unwrap())
}
