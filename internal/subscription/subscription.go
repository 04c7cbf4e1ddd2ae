// Package subscription tracks the user's plan and daily usage and gates
// quota-limited actions before they hit the backend. Gating is advisory:
// the backend enforces limits with 429s, but checking first gives the user
// an upgrade prompt instead of a failed request.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/resumeforge/resumeforge-go/internal/api"
	"github.com/resumeforge/resumeforge-go/internal/store"
	"github.com/resumeforge/resumeforge-go/internal/types"
)

// featurePlans maps product features to the plans that include them.
// Plans absent from a feature's list (and unknown features) are denied.
var featurePlans = map[string][]string{
	"ai_chat":           {types.PlanBasic, types.PlanPro},
	"ats_analysis":      {types.PlanBasic, types.PlanPro},
	"inline_editing":    {types.PlanBasic, types.PlanPro},
	"premium_templates": {types.PlanBasic, types.PlanPro},
	"priority_support":  {types.PlanBasic, types.PlanPro},
	"advanced_export":   {types.PlanPro},
	"unlimited_ai":      {types.PlanPro},
}

// Decision is the outcome of a pre-flight quota check.
type Decision struct {
	Allowed bool
	Reason  string
	Current int
	Limit   int
}

// Store holds subscription and usage state. Current and Usage start nil;
// every predicate treats nil as "deny" so nothing quota-limited runs before
// the first successful load.
type Store struct {
	Current *store.Store[*types.Subscription]
	Plans   *store.Store[[]types.Plan]
	Usage   *store.Store[*types.Usage]
	Loading *store.Store[bool]
	Err     *store.Store[string]

	client *api.Client
	logger *slog.Logger
}

// New creates an empty subscription store.
func New(client *api.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		Current: store.New[*types.Subscription](nil),
		Plans:   store.New[[]types.Plan](nil),
		Usage:   store.New[*types.Usage](nil),
		Loading: store.New(false),
		Err:     store.New(""),
		client:  client,
		logger:  logger,
	}
}

// LoadCurrent fetches the user's subscription.
func (s *Store) LoadCurrent(ctx context.Context) (*types.Subscription, error) {
	done := s.begin()
	defer done()

	var sub types.Subscription
	if err := s.client.Do(ctx, http.MethodGet, "/subscription/current", nil, &sub); err != nil {
		return nil, s.fail(err, "Failed to load subscription")
	}
	s.Current.Set(&sub)
	return &sub, nil
}

// LoadPlans fetches the available plans. The plan list is public.
func (s *Store) LoadPlans(ctx context.Context) ([]types.Plan, error) {
	done := s.begin()
	defer done()

	var plans []types.Plan
	if err := s.client.DoPublic(ctx, http.MethodGet, "/subscription/plans", nil, &plans); err != nil {
		return nil, s.fail(err, "Failed to load plans")
	}
	s.Plans.Set(plans)
	return plans, nil
}

// LoadUsage fetches today's usage counters.
func (s *Store) LoadUsage(ctx context.Context) (*types.Usage, error) {
	done := s.begin()
	defer done()

	var resp types.UsageResponse
	if err := s.client.Do(ctx, http.MethodGet, "/subscription/usage", nil, &resp); err != nil {
		return nil, s.fail(err, "Failed to load usage")
	}
	usage := resp.Usage
	s.Usage.Set(&usage)
	return &usage, nil
}

// LoadDashboard fetches subscription and usage in one round trip.
func (s *Store) LoadDashboard(ctx context.Context) (*types.DashboardResponse, error) {
	done := s.begin()
	defer done()

	var resp types.DashboardResponse
	if err := s.client.Do(ctx, http.MethodGet, "/subscription/dashboard", nil, &resp); err != nil {
		return nil, s.fail(err, "Failed to load dashboard")
	}
	if resp.Subscription != nil {
		s.Current.Set(resp.Subscription)
	}
	if resp.Usage != nil {
		s.Usage.Set(resp.Usage)
	}
	return &resp, nil
}

// CreateCheckoutSession starts a checkout for a paid plan and returns the
// payment provider URL the user must visit.
func (s *Store) CreateCheckoutSession(ctx context.Context, req types.CheckoutRequest) (string, error) {
	done := s.begin()
	defer done()

	if err := req.Validate(); err != nil {
		return "", s.fail(err, "Failed to start checkout")
	}
	var resp types.CheckoutResponse
	if err := s.client.Do(ctx, http.MethodPost, "/subscription/checkout", &req, &resp); err != nil {
		return "", s.fail(err, "Failed to start checkout")
	}
	return resp.CheckoutURL, nil
}

// Cancel cancels the current subscription and reloads it so the store
// reflects the downgraded state.
func (s *Store) Cancel(ctx context.Context) error {
	done := s.begin()
	defer done()

	if err := s.client.Do(ctx, http.MethodPost, "/subscription/cancel", nil, nil); err != nil {
		return s.fail(err, "Failed to cancel subscription")
	}
	done()

	if _, err := s.LoadCurrent(ctx); err != nil {
		s.logger.Warn("subscription canceled but reload failed", slog.String("error", err.Error()))
	}
	return nil
}

// IsFreeTier reports whether the user is on the free plan. An unloaded
// subscription counts as free.
func (s *Store) IsFreeTier() bool {
	sub := s.Current.Get()
	if sub == nil {
		return true
	}
	return strings.EqualFold(sub.Name, types.PlanFree) || sub.Name == ""
}

// IsPremium reports whether the user is on any paid plan.
func (s *Store) IsPremium() bool {
	sub := s.Current.Get()
	if sub == nil {
		return false
	}
	switch strings.ToLower(sub.Name) {
	case types.PlanBasic, types.PlanPro:
		return true
	}
	return false
}

// CanMakeAPICall reports whether another LLM call fits in today's quota.
// Unknown usage means no. Used/limit are the authoritative pair; remaining
// is a derived display field some responses omit.
func (s *Store) CanMakeAPICall() bool {
	usage := s.Usage.Get()
	if usage == nil {
		return false
	}
	return usage.APICalls.Used < usage.APICalls.Limit
}

// CanCreateCV reports whether another CV fits under the plan's CV limit.
// Unknown usage means no.
func (s *Store) CanCreateCV() bool {
	usage := s.Usage.Get()
	if usage == nil {
		return false
	}
	return usage.CVs.Used < usage.CVs.Limit
}

// CheckBeforeLLMRequest is the pre-flight check for chat, inline edit, and
// ATS analysis.
func (s *Store) CheckBeforeLLMRequest() Decision {
	usage := s.Usage.Get()
	if usage == nil {
		return Decision{Reason: "Usage information not loaded yet"}
	}
	quota := usage.APICalls
	if quota.Used >= quota.Limit {
		return Decision{
			Reason:  fmt.Sprintf("Daily AI request limit reached (%d of %d used)", quota.Used, quota.Limit),
			Current: quota.Used,
			Limit:   quota.Limit,
		}
	}
	return Decision{Allowed: true, Current: quota.Used, Limit: quota.Limit}
}

// CheckBeforeCVCreation is the pre-flight check for creating a CV.
func (s *Store) CheckBeforeCVCreation() Decision {
	usage := s.Usage.Get()
	if usage == nil {
		return Decision{Reason: "Usage information not loaded yet"}
	}
	quota := usage.CVs
	if quota.Used >= quota.Limit {
		return Decision{
			Reason:  fmt.Sprintf("CV limit reached (%d of %d used)", quota.Used, quota.Limit),
			Current: quota.Used,
			Limit:   quota.Limit,
		}
	}
	return Decision{Allowed: true, Current: quota.Used, Limit: quota.Limit}
}

// IncrementAPIUsage bumps the local API call counter after a successful
// gated request, so back-to-back calls see fresh numbers without waiting
// for a backend round trip.
func (s *Store) IncrementAPIUsage() {
	s.Usage.Update(func(usage *types.Usage) *types.Usage {
		if usage == nil {
			return nil
		}
		next := *usage
		next.APICalls = bump(next.APICalls)
		return &next
	})
}

// IncrementCVUsage bumps the local CV counter after a successful creation.
func (s *Store) IncrementCVUsage() {
	s.Usage.Update(func(usage *types.Usage) *types.Usage {
		if usage == nil {
			return nil
		}
		next := *usage
		next.CVs = bump(next.CVs)
		return &next
	})
}

// RefreshUsage reconciles the optimistic local counters with the backend.
func (s *Store) RefreshUsage(ctx context.Context) error {
	_, err := s.LoadUsage(ctx)
	return err
}

// ApplyRateLimit copies the authoritative counters out of a 429 into the
// local usage state, so the UI shows the backend's numbers rather than the
// optimistic ones that just proved stale.
func (s *Store) ApplyRateLimit(err error) bool {
	var rle *api.RateLimitError
	if !errors.As(err, &rle) {
		return false
	}
	current := rle.Detail.CurrentUsage
	s.Usage.Update(func(usage *types.Usage) *types.Usage {
		base := types.Usage{}
		if usage != nil {
			base = *usage
		}
		base.APICalls = reconcile(current.CallsUsed, current.CallsLimit)
		base.CVs = reconcile(current.CVsUsed, current.CVsLimit)
		if rle.Detail.ResetInfo != "" {
			base.ResetInfo = rle.Detail.ResetInfo
		}
		return &base
	})
	return true
}

// HasFeatureAccess reports whether the current plan includes a feature.
// Unknown features and unloaded subscriptions are denied.
func (s *Store) HasFeatureAccess(feature string) bool {
	sub := s.Current.Get()
	if sub == nil {
		return false
	}
	plans, ok := featurePlans[feature]
	if !ok {
		return false
	}
	name := strings.ToLower(sub.Name)
	for _, plan := range plans {
		if name == plan {
			return true
		}
	}
	return false
}

func bump(q types.Quota) types.Quota {
	q.Used++
	q.Remaining = q.Limit - q.Used
	if q.Remaining < 0 {
		q.Remaining = 0
	}
	if q.Limit > 0 {
		q.Percentage = float64(q.Used) / float64(q.Limit) * 100
	}
	q.WarningLevel = types.WarningLevel(q.Percentage)
	return q
}

func reconcile(used, limit int) types.Quota {
	q := types.Quota{Used: used, Limit: limit, Remaining: limit - used}
	if q.Remaining < 0 {
		q.Remaining = 0
	}
	if limit > 0 {
		q.Percentage = float64(used) / float64(limit) * 100
	}
	q.WarningLevel = types.WarningLevel(q.Percentage)
	return q
}

func (s *Store) begin() func() {
	s.Loading.Set(true)
	s.Err.Set("")
	var once bool
	return func() {
		if once {
			return
		}
		once = true
		s.Loading.Set(false)
	}
}

func (s *Store) fail(err error, fallback string) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		s.Err.Set(apiErr.Detail)
		return err
	}
	s.Err.Set(fallback)
	return err
}
