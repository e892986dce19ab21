// Package account mirrors authenticated users locally and stores their
// business profile.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/pkg/validator"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("profile not found")
)

// Role is the authorization role carried by the identity token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps unknown or empty values to RoleUser.
func ParseRole(v string) Role {
	if strings.EqualFold(v, string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// User is the local copy of an external identity.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the business information printed on exports and public quotes.
type Profile struct {
	UserID       uuid.UUID `json:"user_id"`
	BusinessName string    `json:"business_name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Website      string    `json:"website"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsEmpty reports whether no business detail has been set.
func (p *Profile) IsEmpty() bool {
	return p == nil || (p.BusinessName == "" && p.Phone == "" && p.Address == "" && p.Website == "")
}

// ProfileInput is the full replacement payload for a profile.
type ProfileInput struct {
	BusinessName string `json:"business_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Website      string `json:"website"`
}

// Store persists users and profiles.
type Store interface {
	// UpsertUser inserts the user or refreshes email, name and role; CreatedAt is kept.
	UpsertUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpsertProfile(ctx context.Context, p *Profile) error
}

// Service manages users and profiles.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	if store == nil {
		panic("account: Store is required")
	}
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Sync records the identity presented on an authenticated request.
func (s *Service) Sync(ctx context.Context, id uuid.UUID, email, name string, role Role) (*User, error) {
	u := &User{ID: id, Email: email, Name: name, Role: role, CreatedAt: s.now()}
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to sync user: %w", err)
	}
	return u, nil
}

// User returns a stored user.
func (s *Service) User(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.GetUser(ctx, id)
}

// Profile returns the user's profile, or an empty one when none was saved.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return &Profile{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProfile replaces the user's profile.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*Profile, error) {
	if err := validator.Apply(
		validator.MaxLen("business_name", in.BusinessName, 200),
		validator.MaxLen("phone", in.Phone, 50),
		validator.MaxLen("address", in.Address, 1000),
		validator.MaxLen("website", in.Website, 500),
		validator.OptionalURL("website", in.Website),
	); err != nil {
		return nil, err
	}

	p := &Profile{
		UserID:       userID,
		BusinessName: strings.TrimSpace(in.BusinessName),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Website:      strings.TrimSpace(in.Website),
		UpdatedAt:    s.now(),
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return p, nil
}
