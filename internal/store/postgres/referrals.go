package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/quotekit/internal/referral"
)

func (s *Store) CreateReferral(ctx context.Context, r *referral.Referral) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO referrals (id, referrer_id, referred_id, status, reward_given, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.ReferrerID, r.ReferredID, string(r.Status), r.RewardGiven, r.CreatedAt,
	)
	if isUniqueViolation(err, "referrals_referred_id_key") {
		return referral.ErrAlreadyReferred
	}
	if err != nil {
		return fmt.Errorf("failed to insert referral: %w", err)
	}
	return nil
}

func (s *Store) GetReferralByReferred(ctx context.Context, referredID uuid.UUID) (*referral.Referral, error) {
	var r referral.Referral
	err := s.pool.QueryRow(ctx, `
		SELECT id, referrer_id, referred_id, status, reward_given, created_at
		FROM referrals WHERE referred_id = $1`, referredID,
	).Scan(&r.ID, &r.ReferrerID, &r.ReferredID, &r.Status, &r.RewardGiven, &r.CreatedAt)
	if isNotFound(err) {
		return nil, referral.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load referral: %w", err)
	}
	return &r, nil
}

func (s *Store) ListReferralsByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*referral.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.referrer_id, r.referred_id, r.status, r.reward_given, r.created_at,
			COALESCE(u.email, ''), COALESCE(u.name, '')
		FROM referrals r
		LEFT JOIN users u ON u.id = r.referred_id
		WHERE r.referrer_id = $1
		ORDER BY r.created_at DESC`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*referral.Entry, error) {
		var e referral.Entry
		err := row.Scan(&e.ID, &e.ReferrerID, &e.ReferredID, &e.Status, &e.RewardGiven, &e.CreatedAt,
			&e.ReferredEmail, &e.ReferredName)
		return &e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return entries, nil
}
