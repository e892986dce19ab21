// Package plan enforces the free-plan quote quota.
//
// A user is unrestricted while their subscription is ACTIVE. Everyone else may
// hold at most FreeQuoteLimit quotes. The count-then-insert sequence is not
// transactional: two concurrent creates at the limit can both pass.
package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/internal/billing"
)

// FreeQuoteLimit is the number of quotes a user without an active subscription may hold.
const FreeQuoteLimit = 3

// UpgradeMessage is shown to users who hit the free limit.
const UpgradeMessage = "Free plan limit reached. Upgrade to Pro for unlimited quotes."

// ErrQuotaExceeded matches every *QuotaError.
var ErrQuotaExceeded = errors.New("free plan quote limit reached")

// QuotaError carries the usage that triggered the refusal.
type QuotaError struct {
	Limit int
	Used  int
}

func (e *QuotaError) Error() string {
	return UpgradeMessage
}

func (e *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}

// Store provides the two reads the gate needs.
type Store interface {
	GetSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error)
	CountQuotes(ctx context.Context, userID uuid.UUID) (int, error)
}

// Eligibility summarises a user's quota position.
type Eligibility struct {
	Unrestricted bool `json:"unrestricted"`
	Limit        int  `json:"limit"`
	Used         int  `json:"used"`
	Remaining    int  `json:"remaining"`
}

// Gate implements quote.Gate.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	if store == nil {
		panic("plan: Store is required")
	}
	return &Gate{store: store}
}

// Check returns a *QuotaError when the user may not create another quote.
func (g *Gate) Check(ctx context.Context, userID uuid.UUID) error {
	e, err := g.Eligibility(ctx, userID)
	if err != nil {
		return err
	}
	if !e.Unrestricted && e.Used >= e.Limit {
		return &QuotaError{Limit: e.Limit, Used: e.Used}
	}
	return nil
}

// Eligibility reports whether the user is unrestricted or how much quota is left.
func (g *Gate) Eligibility(ctx context.Context, userID uuid.UUID) (Eligibility, error) {
	active, err := g.isActive(ctx, userID)
	if err != nil {
		return Eligibility{}, err
	}
	if active {
		return Eligibility{Unrestricted: true}, nil
	}

	used, err := g.store.CountQuotes(ctx, userID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("failed to count quotes: %w", err)
	}

	return Eligibility{
		Limit:     FreeQuoteLimit,
		Used:      used,
		Remaining: max(0, FreeQuoteLimit-used),
	}, nil
}

// A missing subscription row counts as not active.
func (g *Gate) isActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	sub, err := g.store.GetSubscriptionByUser(ctx, userID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub.Status == billing.StatusActive, nil
}
