package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/quotekit/internal/billing"
)

const subscriptionColumns = `id, user_id, customer_id, subscription_id, status, plan,
	current_period_start, current_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := row.Scan(&sub.ID, &sub.UserID, &sub.CustomerID, &sub.SubscriptionID, &sub.Status, &sub.Plan,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	if isNotFound(err) {
		return nil, billing.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

func (s *Store) GetSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	return scanSubscription(s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, userID))
}

func (s *Store) GetSubscriptionByCustomer(ctx context.Context, customerID string) (*billing.Subscription, error) {
	if customerID == "" {
		return nil, billing.ErrSubscriptionNotFound
	}
	return scanSubscription(s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE customer_id = $1 ORDER BY updated_at DESC LIMIT 1`, customerID))
}

func (s *Store) GetSubscriptionByExternalID(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	if subscriptionID == "" {
		return nil, billing.ErrSubscriptionNotFound
	}
	return scanSubscription(s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE subscription_id = $1 ORDER BY updated_at DESC LIMIT 1`, subscriptionID))
}

// UpsertSubscription keeps id and created_at of an existing row.
func (s *Store) UpsertSubscription(ctx context.Context, sub *billing.Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			subscription_id = EXCLUDED.subscription_id,
			status = EXCLUDED.status,
			plan = EXCLUDED.plan,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at`,
		sub.ID, sub.UserID, sub.CustomerID, sub.SubscriptionID, string(sub.Status), string(sub.Plan),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *billing.Subscription) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions
		SET status = $2, current_period_start = $3, current_period_end = $4, updated_at = $5
		WHERE user_id = $1`,
		sub.UserID, string(sub.Status), sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) CreatePayment(ctx context.Context, p *billing.Payment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO payments (id, user_id, subscription_id, payment_intent_id, amount, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)`,
		p.ID, p.UserID, p.SubscriptionID, p.PaymentIntentID, num(p.Amount), p.Currency, string(p.Status), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, userID uuid.UUID) ([]*billing.Payment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, subscription_id, payment_intent_id, amount, currency, status, created_at
		FROM payments WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*billing.Payment, error) {
		var p billing.Payment
		err := row.Scan(&p.ID, &p.UserID, &p.SubscriptionID, &p.PaymentIntentID, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt)
		return &p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
