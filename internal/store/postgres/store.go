package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/admin"
	"github.com/dmitrymomot/quotekit/internal/billing"
	"github.com/dmitrymomot/quotekit/internal/plan"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/internal/referral"
)

var (
	_ quote.Store    = (*Store)(nil)
	_ plan.Store     = (*Store)(nil)
	_ billing.Store  = (*Store)(nil)
	_ account.Store  = (*Store)(nil)
	_ referral.Store = (*Store)(nil)
	_ admin.Store    = (*Store)(nil)
)

// Store is safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// num passes a decimal as text so the server parses it into NUMERIC exactly.
func num(d decimal.Decimal) string {
	return d.String()
}
