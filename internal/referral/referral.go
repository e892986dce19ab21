// Package referral records which user referred whom.
//
// Only creation and listing exist. Completing a referral and granting the
// reward are not implemented: Status stays PENDING and RewardGiven false.
package referral

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("referral not found")
	ErrAlreadyReferred    = errors.New("referral already exists")
	ErrReferrerNotFound   = errors.New("referrer not found")
	ErrSelfReferral       = errors.New("cannot refer yourself")
	ErrReferrerIDRequired = errors.New("referrer id is required")
	ErrInvalidReferrerID  = errors.New("referrer id is not valid")
)

// Status of a referral.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Referral links a referrer to the user they brought in. ReferredID is unique.
type Referral struct {
	ID          uuid.UUID `json:"id"`
	ReferrerID  uuid.UUID `json:"referrer_id"`
	ReferredID  uuid.UUID `json:"referred_id"`
	Status      Status    `json:"status"`
	RewardGiven bool      `json:"reward_given"`
	CreatedAt   time.Time `json:"created_at"`
}

// Entry is a referral with the referred user's contact details.
type Entry struct {
	Referral
	ReferredEmail string `json:"referred_email"`
	ReferredName  string `json:"referred_name,omitempty"`
}

// Overview is what a referrer sees.
type Overview struct {
	Referrals []*Entry `json:"referrals"`
	Link      string   `json:"referral_link"`
}

// Store persists referrals.
type Store interface {
	// CreateReferral returns ErrAlreadyReferred if ReferredID already has a referral.
	CreateReferral(ctx context.Context, r *Referral) error
	GetReferralByReferred(ctx context.Context, referredID uuid.UUID) (*Referral, error)
	// ListReferralsByReferrer returns newest first.
	ListReferralsByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*Entry, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service implements referral operations.
type Service struct {
	store   Store
	baseURL string
	now     func() time.Time
}

func NewService(store Store, baseURL string) *Service {
	if store == nil {
		panic("referral: Store is required")
	}
	return &Service{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Link returns the signup link carrying the user's id.
func (s *Service) Link(userID uuid.UUID) string {
	return s.baseURL + "/signup?ref=" + url.QueryEscape(userID.String())
}

// List returns the caller's referrals and referral link.
func (s *Service) List(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	entries, err := s.store.ListReferralsByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return &Overview{Referrals: entries, Link: s.Link(userID)}, nil
}

// Create records that referrerID referred the caller.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, referrerID string) (*Referral, error) {
	referrerID = strings.TrimSpace(referrerID)
	if referrerID == "" {
		return nil, ErrReferrerIDRequired
	}
	referrer, err := uuid.Parse(referrerID)
	if err != nil {
		return nil, ErrInvalidReferrerID
	}
	if referrer == userID {
		return nil, ErrSelfReferral
	}

	_, err = s.store.GetReferralByReferred(ctx, userID)
	switch {
	case err == nil:
		return nil, ErrAlreadyReferred
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("failed to check existing referral: %w", err)
	}

	exists, err := s.store.UserExists(ctx, referrer)
	if err != nil {
		return nil, fmt.Errorf("failed to look up referrer: %w", err)
	}
	if !exists {
		return nil, ErrReferrerNotFound
	}

	r := &Referral{
		ID:         uuid.New(),
		ReferrerID: referrer,
		ReferredID: userID,
		Status:     StatusPending,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateReferral(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
