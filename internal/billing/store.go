package billing

import (
	"context"

	"github.com/google/uuid"
)

// Store persists subscriptions and payments.
// Subscription lookups return ErrSubscriptionNotFound when no row matches.
type Store interface {
	GetSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	GetSubscriptionByCustomer(ctx context.Context, customerID string) (*Subscription, error)
	GetSubscriptionByExternalID(ctx context.Context, subscriptionID string) (*Subscription, error)
	// UpsertSubscription inserts or replaces the row keyed on sub.UserID.
	UpsertSubscription(ctx context.Context, sub *Subscription) error
	// UpdateSubscription rewrites status and period of the row keyed on sub.UserID.
	UpdateSubscription(ctx context.Context, sub *Subscription) error
	CreatePayment(ctx context.Context, p *Payment) error
	// ListPayments returns the user's payments, newest first.
	ListPayments(ctx context.Context, userID uuid.UUID) ([]*Payment, error)
}
