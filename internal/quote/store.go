package quote

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists quotes. Owner-scoped reads return ErrNotFound for foreign quotes.
type Store interface {
	CreateQuote(ctx context.Context, q *Quote) error
	GetQuote(ctx context.Context, userID, id uuid.UUID) (*Quote, error)
	GetQuoteByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	ListQuotes(ctx context.Context, userID uuid.UUID) ([]*Quote, error)
	// UpdateQuoteStatus sets status = to only while the stored status equals from.
	// It returns ErrStatusConflict when the row exists with another status.
	UpdateQuoteStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error
	// ReplaceLineItems overwrites items and every derived money field of q.
	ReplaceLineItems(ctx context.Context, q *Quote) error
	DeleteQuote(ctx context.Context, userID, id uuid.UUID) error
	// SetShareToken stores token only when the quote has none yet and reports whether it did.
	SetShareToken(ctx context.Context, id uuid.UUID, token string, at time.Time) (bool, error)
	GetQuoteByShareToken(ctx context.Context, token string) (*Quote, error)
}

// Gate decides whether a user may create another quote.
type Gate interface {
	Check(ctx context.Context, userID uuid.UUID) error
}
