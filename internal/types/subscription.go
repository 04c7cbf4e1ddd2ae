package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Plan names known to the product.
const (
	PlanFree  = "free"
	PlanBasic = "basic"
	PlanPro   = "pro"
)

// Usage warning levels derived from the used/limit ratio.
const (
	WarningLow    = "low"
	WarningMedium = "medium"
	WarningHigh   = "high"
)

// Plan describes a subscription tier.
type Plan struct {
	ID           uuid.UUID `json:"id,omitempty"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name,omitempty"`
	PriceMonthly float64   `json:"price_monthly,omitempty"`
	PriceYearly  float64   `json:"price_yearly,omitempty"`
	APICallLimit int       `json:"api_call_limit,omitempty"`
	CVLimit      int       `json:"cv_limit,omitempty"`
}

// Subscription is the user's current subscription.
type Subscription struct {
	Plan
	Status           string `json:"status,omitempty"`
	BillingCycle     string `json:"billing_cycle,omitempty"`
	CurrentPeriodEnd string `json:"current_period_end,omitempty"`
}

// Quota is one used-vs-limit counter pair with its derived display fields.
type Quota struct {
	Used         int     `json:"used"`
	Limit        int     `json:"limit"`
	Remaining    int     `json:"remaining"`
	Percentage   float64 `json:"percentage"`
	WarningLevel string  `json:"warning_level,omitempty"`
}

// Usage holds the per-day API call quota and the CV count quota.
type Usage struct {
	APICalls  Quota  `json:"api_calls"`
	CVs       Quota  `json:"cvs"`
	UsageDate string `json:"usage_date,omitempty"`
	ResetInfo string `json:"reset_info,omitempty"`
}

// UsageResponse is the envelope returned by /subscription/usage.
type UsageResponse struct {
	Success bool  `json:"success"`
	Usage   Usage `json:"usage"`
}

// DashboardResponse bundles subscription and usage in one call.
type DashboardResponse struct {
	Success      bool          `json:"success"`
	Subscription *Subscription `json:"subscription"`
	Usage        *Usage        `json:"usage"`
}

// CheckoutRequest starts a paid-plan checkout.
type CheckoutRequest struct {
	PlanID       uuid.UUID `json:"plan_id" validate:"required"`
	BillingCycle string    `json:"billing_cycle" validate:"required,oneof=monthly yearly"`
}

// CheckoutResponse carries the payment provider redirect.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// WarningLevel classifies a usage percentage for display.
func WarningLevel(percentage float64) string {
	switch {
	case percentage >= 90:
		return WarningHigh
	case percentage >= 70:
		return WarningMedium
	default:
		return WarningLow
	}
}

// Validate validates the CheckoutRequest using the validator.
func (r *CheckoutRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
