package subscription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumeforge/resumeforge-go/internal/api"
	"github.com/resumeforge/resumeforge-go/internal/types"
)

type fixture struct {
	store *Store
	// cancelCalled flips when the fake backend receives a cancel.
	cancelCalled bool
}

func newFixture(t *testing.T, planName string, apiRemaining, cvRemaining int) *fixture {
	t.Helper()
	f := &fixture{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /subscription/current", func(w http.ResponseWriter, r *http.Request) {
		name := planName
		if f.cancelCalled {
			name = types.PlanFree
		}
		_ = json.NewEncoder(w).Encode(types.Subscription{Plan: types.Plan{Name: name, APICallLimit: 100, CVLimit: 10}})
	})
	mux.HandleFunc("GET /subscription/plans", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]types.Plan{
			{Name: types.PlanFree, CVLimit: 1},
			{Name: types.PlanBasic, PriceMonthly: 9.99},
			{Name: types.PlanPro, PriceMonthly: 19.99},
		})
	})
	mux.HandleFunc("GET /subscription/usage", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(types.UsageResponse{
			Success: true,
			Usage: types.Usage{
				APICalls: types.Quota{Used: 100 - apiRemaining, Limit: 100, Remaining: apiRemaining},
				CVs:      types.Quota{Used: 10 - cvRemaining, Limit: 10, Remaining: cvRemaining},
			},
		})
	})
	mux.HandleFunc("GET /subscription/dashboard", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(types.DashboardResponse{
			Success:      true,
			Subscription: &types.Subscription{Plan: types.Plan{Name: planName}},
			Usage:        &types.Usage{APICalls: types.Quota{Used: 1, Limit: 100, Remaining: 99}},
		})
	})
	mux.HandleFunc("POST /subscription/checkout", func(w http.ResponseWriter, r *http.Request) {
		var req types.CheckoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(types.CheckoutResponse{CheckoutURL: "https://pay.example.com/session"})
	})
	mux.HandleFunc("POST /subscription/cancel", func(w http.ResponseWriter, r *http.Request) {
		f.cancelCalled = true
		_, _ = w.Write([]byte(`{"message": "canceled"}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := api.New(&api.Options{BaseURL: server.URL})
	client.SetTokenSource(func() string { return "test-token" })
	f.store = New(client, nil)
	return f
}

func TestPredicates_FailClosedBeforeLoad(t *testing.T) {
	f := newFixture(t, types.PlanPro, 50, 5)

	assert.False(t, f.store.CanMakeAPICall())
	assert.False(t, f.store.CanCreateCV())
	assert.False(t, f.store.IsPremium())
	assert.True(t, f.store.IsFreeTier(), "unloaded subscription reads as free")
	assert.False(t, f.store.HasFeatureAccess("ai_chat"))

	decision := f.store.CheckBeforeLLMRequest()
	assert.False(t, decision.Allowed)
	assert.NotEmpty(t, decision.Reason)
}

func TestPredicates_AfterLoad(t *testing.T) {
	f := newFixture(t, types.PlanBasic, 50, 5)
	ctx := context.Background()

	_, err := f.store.LoadCurrent(ctx)
	require.NoError(t, err)
	_, err = f.store.LoadUsage(ctx)
	require.NoError(t, err)

	assert.True(t, f.store.CanMakeAPICall())
	assert.True(t, f.store.CanCreateCV())
	assert.True(t, f.store.IsPremium())
	assert.False(t, f.store.IsFreeTier())

	decision := f.store.CheckBeforeLLMRequest()
	assert.True(t, decision.Allowed)
	assert.Equal(t, 50, decision.Current)
	assert.Equal(t, 100, decision.Limit)
}

func TestCheckBeforeLLMRequest_DeniesAtZeroRemaining(t *testing.T) {
	f := newFixture(t, types.PlanFree, 0, 0)
	_, err := f.store.LoadUsage(context.Background())
	require.NoError(t, err)

	llm := f.store.CheckBeforeLLMRequest()
	assert.False(t, llm.Allowed)
	assert.Contains(t, llm.Reason, "limit reached")

	cvs := f.store.CheckBeforeCVCreation()
	assert.False(t, cvs.Allowed)
	assert.Equal(t, 10, cvs.Limit)
}

func TestIncrementAPIUsage_RecomputesDerivedFields(t *testing.T) {
	f := newFixture(t, types.PlanBasic, 31, 5)
	_, err := f.store.LoadUsage(context.Background())
	require.NoError(t, err)

	f.store.IncrementAPIUsage()

	usage := f.store.Usage.Get()
	require.NotNil(t, usage)
	assert.Equal(t, 70, usage.APICalls.Used)
	assert.Equal(t, 30, usage.APICalls.Remaining)
	assert.InDelta(t, 70.0, usage.APICalls.Percentage, 0.001)
	assert.Equal(t, types.WarningMedium, usage.APICalls.WarningLevel)
}

func TestIncrementAPIUsage_NoopWhenUnloaded(t *testing.T) {
	f := newFixture(t, types.PlanBasic, 31, 5)
	f.store.IncrementAPIUsage()
	assert.Nil(t, f.store.Usage.Get())
}

func TestIncrementCVUsage_ClampsRemaining(t *testing.T) {
	f := newFixture(t, types.PlanFree, 10, 0)
	_, err := f.store.LoadUsage(context.Background())
	require.NoError(t, err)

	f.store.IncrementCVUsage()

	usage := f.store.Usage.Get()
	assert.Equal(t, 11, usage.CVs.Used)
	assert.Equal(t, 0, usage.CVs.Remaining, "remaining never goes negative")
	assert.Equal(t, types.WarningHigh, usage.CVs.WarningLevel)
}

func TestApplyRateLimit_AdoptsBackendCounters(t *testing.T) {
	f := newFixture(t, types.PlanFree, 5, 1)
	_, err := f.store.LoadUsage(context.Background())
	require.NoError(t, err)

	rle := &api.RateLimitError{Detail: api.RateLimitDetail{
		Message:   "Daily limit reached",
		ResetInfo: "Resets at midnight UTC",
		CurrentUsage: api.UsageNumbers{
			CallsUsed: 100, CallsLimit: 100,
			CVsUsed: 10, CVsLimit: 10,
		},
	}}
	require.True(t, f.store.ApplyRateLimit(rle))

	usage := f.store.Usage.Get()
	assert.Equal(t, 100, usage.APICalls.Used)
	assert.Equal(t, 0, usage.APICalls.Remaining)
	assert.Equal(t, types.WarningHigh, usage.APICalls.WarningLevel)
	assert.Equal(t, "Resets at midnight UTC", usage.ResetInfo)
	assert.False(t, f.store.CanMakeAPICall())

	assert.False(t, f.store.ApplyRateLimit(assert.AnError), "non-429 errors are not usage signals")
}

func TestHasFeatureAccess(t *testing.T) {
	tests := []struct {
		name    string
		plan    string
		feature string
		want    bool
	}{
		{"free denied chat", types.PlanFree, "ai_chat", false},
		{"basic allowed chat", types.PlanBasic, "ai_chat", true},
		{"basic denied advanced export", types.PlanBasic, "advanced_export", false},
		{"pro allowed advanced export", types.PlanPro, "advanced_export", true},
		{"pro allowed unlimited ai", types.PlanPro, "unlimited_ai", true},
		{"unknown feature denied", types.PlanPro, "time_travel", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.plan, 50, 5)
			_, err := f.store.LoadCurrent(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.store.HasFeatureAccess(tt.feature))
		})
	}
}

func TestLoadDashboard_PopulatesBothStores(t *testing.T) {
	f := newFixture(t, types.PlanPro, 50, 5)

	resp, err := f.store.LoadDashboard(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, f.store.Current.Get())
	assert.Equal(t, types.PlanPro, f.store.Current.Get().Name)
	require.NotNil(t, f.store.Usage.Get())
	assert.Equal(t, 99, f.store.Usage.Get().APICalls.Remaining)
}

func TestCreateCheckoutSession(t *testing.T) {
	f := newFixture(t, types.PlanFree, 50, 5)

	url, err := f.store.CreateCheckoutSession(context.Background(), types.CheckoutRequest{
		PlanID:       uuid.New(),
		BillingCycle: "monthly",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/session", url)

	_, err = f.store.CreateCheckoutSession(context.Background(), types.CheckoutRequest{
		PlanID:       uuid.New(),
		BillingCycle: "weekly",
	})
	require.Error(t, err, "billing cycle must be monthly or yearly")
}

func TestCancel_ReloadsSubscription(t *testing.T) {
	f := newFixture(t, types.PlanPro, 50, 5)
	ctx := context.Background()

	_, err := f.store.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.True(t, f.store.IsPremium())

	require.NoError(t, f.store.Cancel(ctx))
	assert.True(t, f.store.IsFreeTier())
	assert.False(t, f.store.Loading.Get())
}

func TestLoadPlans(t *testing.T) {
	f := newFixture(t, types.PlanFree, 50, 5)

	plans, err := f.store.LoadPlans(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 3)
	assert.Equal(t, types.PlanFree, plans[0].Name)
}
