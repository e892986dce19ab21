// Package admin serves operator-only listings and the quote expiry path.
package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/billing"
	"github.com/dmitrymomot/quotekit/internal/quote"
)

// UserSummary is one row of the user listing.
type UserSummary struct {
	account.User
	Subscription *billing.Subscription `json:"subscription"`
	QuoteCount   int                   `json:"quote_count"`
}

// QuoteSummary is one row of the quote listing.
type QuoteSummary struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	OwnerEmail string          `json:"owner_email"`
	Title      string          `json:"title,omitempty"`
	ClientName string          `json:"client_name"`
	Total      decimal.Decimal `json:"total"`
	Status     quote.Status    `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Store provides cross-user reads. Both listings are newest first.
type Store interface {
	ListUserSummaries(ctx context.Context) ([]*UserSummary, error)
	ListQuoteSummaries(ctx context.Context) ([]*QuoteSummary, error)
}

// Expirer is the system expiry path of the quote service.
type Expirer interface {
	Expire(ctx context.Context, id uuid.UUID) (*quote.Quote, error)
}

// Service implements admin operations. Callers must check the admin role.
type Service struct {
	store  Store
	quotes Expirer
}

func NewService(store Store, quotes Expirer) *Service {
	if store == nil || quotes == nil {
		panic("admin: Store and Expirer are required")
	}
	return &Service{store: store, quotes: quotes}
}

func (s *Service) Users(ctx context.Context) ([]*UserSummary, error) {
	return s.store.ListUserSummaries(ctx)
}

func (s *Service) Quotes(ctx context.Context) ([]*QuoteSummary, error) {
	return s.store.ListQuoteSummaries(ctx)
}

// ExpireQuote moves any non-terminal quote to EXPIRED.
func (s *Service) ExpireQuote(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	return s.quotes.Expire(ctx, id)
}
