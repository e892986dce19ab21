package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the local subscription state.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusPastDue   Status = "PAST_DUE"
	StatusCancelled Status = "CANCELLED"
)

// Plan is the billing interval of a paid subscription.
type Plan string

const (
	PlanMonthly Plan = "MONTHLY"
	PlanYearly  Plan = "YEARLY"
)

// PlanFromMetadata maps the checkout metadata value: exactly "monthly" is MONTHLY, anything else is YEARLY.
func PlanFromMetadata(v string) Plan {
	if v == "monthly" {
		return PlanMonthly
	}
	return PlanYearly
}

// ParsePlan accepts only "monthly" and "yearly" (any case).
func ParsePlan(v string) (Plan, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "monthly":
		return PlanMonthly, nil
	case "yearly":
		return PlanYearly, nil
	default:
		return "", ErrInvalidPlan
	}
}

// Key is the lower-case form sent to providers as metadata.
func (p Plan) Key() string {
	return strings.ToLower(string(p))
}

// Period returns the end of a billing period that starts at start.
func (p Plan) Period(start time.Time) time.Time {
	if p == PlanMonthly {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(1, 0, 0)
}

// MapProviderStatus maps a processor subscription status onto Status.
// Values are matched exactly; anything unrecognised is INACTIVE.
func MapProviderStatus(v string) Status {
	switch v {
	case "active":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "canceled":
		return StatusCancelled
	default:
		return StatusInactive
	}
}

// PaymentStatus is the outcome of a charge.
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "SUCCEEDED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Subscription is the single per-user subscription row.
type Subscription struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	CustomerID         string    `json:"customer_id"`
	SubscriptionID     string    `json:"subscription_id"`
	Status             Status    `json:"status"`
	Plan               Plan      `json:"plan"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsActive reports whether the subscription lifts the free quota.
func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

// Payment is an append-only ledger entry. Amount is in major currency units.
type Payment struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	SubscriptionID  string          `json:"subscription_id"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          PaymentStatus   `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// MinorToMajor converts an amount in minor units (pence, cents) to major units.
func MinorToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
