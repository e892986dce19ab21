package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/quotekit/internal/admin"
	"github.com/dmitrymomot/quotekit/internal/billing"
)

func (s *Store) ListUserSummaries(ctx context.Context) ([]*admin.UserSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.email, u.name, u.role, u.created_at,
			(SELECT COUNT(*) FROM quotes q WHERE q.user_id = u.id),
			s.id, s.customer_id, s.subscription_id, s.status, s.plan,
			s.current_period_start, s.current_period_end, s.created_at, s.updated_at
		FROM users u
		LEFT JOIN subscriptions s ON s.user_id = u.id
		ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*admin.UserSummary, error) {
		var (
			sum                    admin.UserSummary
			subID                  *uuid.UUID
			customerID, extID      *string
			status, plan           *string
			periodStart, periodEnd *time.Time
			created, updated       *time.Time
		)
		err := row.Scan(&sum.ID, &sum.Email, &sum.Name, &sum.Role, &sum.CreatedAt, &sum.QuoteCount,
			&subID, &customerID, &extID, &status, &plan, &periodStart, &periodEnd, &created, &updated)
		if err != nil {
			return nil, err
		}
		if subID != nil {
			sum.Subscription = &billing.Subscription{
				ID:                 *subID,
				UserID:             sum.ID,
				CustomerID:         *customerID,
				SubscriptionID:     *extID,
				Status:             billing.Status(*status),
				Plan:               billing.Plan(*plan),
				CurrentPeriodStart: *periodStart,
				CurrentPeriodEnd:   *periodEnd,
				CreatedAt:          *created,
				UpdatedAt:          *updated,
			}
		}
		return &sum, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return summaries, nil
}

func (s *Store) ListQuoteSummaries(ctx context.Context) ([]*admin.QuoteSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT q.id, q.user_id, COALESCE(u.email, ''), q.title, q.client_name, q.total, q.status, q.created_at
		FROM quotes q
		LEFT JOIN users u ON u.id = q.user_id
		ORDER BY q.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*admin.QuoteSummary, error) {
		var sum admin.QuoteSummary
		err := row.Scan(&sum.ID, &sum.UserID, &sum.OwnerEmail, &sum.Title, &sum.ClientName, &sum.Total, &sum.Status, &sum.CreatedAt)
		return &sum, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return summaries, nil
}
