package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/internal/account"
)

// UpsertUser refreshes email, name and role and writes the stored
// created_at back into u.
func (s *Store) UpsertUser(ctx context.Context, u *account.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role
		RETURNING created_at`,
		u.ID, u.Email, u.Name, string(u.Role), u.CreatedAt,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*account.User, error) {
	var u account.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, role, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
	if isNotFound(err) {
		return nil, account.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

func (s *Store) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

func (s *Store) GetProfile(ctx context.Context, userID uuid.UUID) (*account.Profile, error) {
	var p account.Profile
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, business_name, phone, address, website, updated_at
		FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.BusinessName, &p.Phone, &p.Address, &p.Website, &p.UpdatedAt)
	if isNotFound(err) {
		return nil, account.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p *account.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, business_name, phone, address, website, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			website = EXCLUDED.website,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.BusinessName, p.Phone, p.Address, p.Website, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
