package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/quotekit/internal/pricing"
	"github.com/dmitrymomot/quotekit/pkg/logger"
)

// Service implements quote operations on behalf of an authenticated owner.
type Service struct {
	store    Store
	gate     Gate
	log      *slog.Logger
	now      func() time.Time
	newToken TokenGenerator
	created  func()
}

// ServiceOption configures optional Service dependencies.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTokenGenerator overrides RandomToken.
func WithTokenGenerator(gen TokenGenerator) ServiceOption {
	return func(s *Service) {
		if gen != nil {
			s.newToken = gen
		}
	}
}

// WithCreatedHook is called after every successful Create.
func WithCreatedHook(fn func()) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.created = fn
		}
	}
}

// NewService panics on a nil store or gate to fail fast during wiring.
func NewService(store Store, gate Gate, opts ...ServiceOption) *Service {
	if store == nil {
		panic("quote: Store is required")
	}
	if gate == nil {
		panic("quote: Gate is required")
	}

	s := &Service{
		store:    store,
		gate:     gate,
		log:      logger.Discard(),
		now:      func() time.Time { return time.Now().UTC() },
		newToken: RandomToken,
		created:  func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input, consults the plan gate and persists a DRAFT quote.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*Quote, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	if err := s.gate.Check(ctx, userID); err != nil {
		return nil, err
	}

	vatRate := DefaultVATRate
	if in.VATRate != nil {
		vatRate = *in.VATRate
	}
	discount := decimal.Zero
	if in.Discount != nil {
		discount = *in.Discount
	}

	now := s.now()
	q := &Quote{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         in.Title,
		ClientName:    in.ClientName,
		ClientEmail:   in.ClientEmail,
		ClientPhone:   in.ClientPhone,
		ClientAddress: in.ClientAddress,
		Notes:         in.Notes,
		Status:        StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyPricing(q, in.Items, vatRate, discount)

	if err := s.store.CreateQuote(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	s.created()
	s.log.InfoContext(ctx, "quote created", logger.UserID(userID), logger.QuoteID(q.ID))
	return q, nil
}

// Get returns an owned quote.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Quote, error) {
	return s.store.GetQuote(ctx, userID, id)
}

// List returns the owner's quotes, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Quote, error) {
	return s.store.ListQuotes(ctx, userID)
}

// UpdateLineItems replaces the item list and recomputes every total from scratch.
func (s *Service) UpdateLineItems(ctx context.Context, userID, id uuid.UUID, in UpdateItemsInput) (*Quote, error) {
	if err := validateItems(in); err != nil {
		return nil, err
	}

	q, err := s.store.GetQuote(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	vatRate, discount := q.VATRate, q.Discount
	if in.VATRate != nil {
		vatRate = *in.VATRate
	}
	if in.Discount != nil {
		discount = *in.Discount
	}

	applyPricing(q, in.Items, vatRate, discount)
	q.UpdatedAt = s.now()

	if err := s.store.ReplaceLineItems(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to replace line items: %w", err)
	}
	return q, nil
}

// Transition moves an owned quote along an owner-driven edge of the lifecycle.
// EXPIRED is never a valid target here; see Expire.
func (s *Service) Transition(ctx context.Context, userID, id uuid.UUID, to Status) (*Quote, error) {
	q, err := s.store.GetQuote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(q.Status, to); err != nil {
		return nil, err
	}
	return s.setStatus(ctx, q, to)
}

// Expire moves any non-terminal quote to EXPIRED without an ownership check.
// It is the system path used by administrators and scheduled jobs.
func (s *Service) Expire(ctx context.Context, id uuid.UUID) (*Quote, error) {
	q, err := s.store.GetQuoteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanExpire(q.Status) {
		return nil, &TransitionError{From: q.Status, To: StatusExpired}
	}
	return s.setStatus(ctx, q, StatusExpired)
}

func (s *Service) setStatus(ctx context.Context, q *Quote, to Status) (*Quote, error) {
	now := s.now()
	if err := s.store.UpdateQuoteStatus(ctx, q.ID, q.Status, to, now); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, errors.Join(&TransitionError{From: q.Status, To: to}, err)
		}
		return nil, fmt.Errorf("failed to update quote status: %w", err)
	}

	s.log.InfoContext(ctx, "quote status changed",
		logger.QuoteID(q.ID),
		slog.String("from", q.Status.String()),
		slog.String("to", to.String()),
	)

	q.Status = to
	q.UpdatedAt = now
	return q, nil
}

// Delete hard-deletes an owned quote with its line items.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.DeleteQuote(ctx, userID, id)
}

// IssueShareToken returns the quote's share token, creating one on first use.
// Concurrent callers converge on a single stored token.
func (s *Service) IssueShareToken(ctx context.Context, userID, id uuid.UUID) (*Quote, error) {
	q, err := s.store.GetQuote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if q.HasShareToken() {
		return q, nil
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate share token: %w", err)
	}

	now := s.now()
	set, err := s.store.SetShareToken(ctx, q.ID, token, now)
	if err != nil {
		return nil, fmt.Errorf("failed to store share token: %w", err)
	}
	if !set {
		// another request stored a token first
		return s.store.GetQuote(ctx, userID, id)
	}

	q.ShareToken = &token
	q.UpdatedAt = now
	return q, nil
}

// GetByShareToken resolves a public token. No ownership check is made.
func (s *Service) GetByShareToken(ctx context.Context, token string) (*Quote, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.store.GetQuoteByShareToken(ctx, token)
}

func applyPricing(q *Quote, in []ItemInput, vatRate, discount decimal.Decimal) {
	items := make([]pricing.Item, len(in))
	for i, it := range in {
		items[i] = pricing.Item{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	totals := pricing.Calculate(items, vatRate, discount)

	q.LineItems = make([]LineItem, len(in))
	for i, it := range in {
		q.LineItems[i] = LineItem{
			ID:          uuid.New(),
			QuoteID:     q.ID,
			Position:    i,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       totals.ItemTotals[i],
		}
	}
	q.VATRate = vatRate
	q.Discount = discount
	q.Subtotal = totals.Subtotal
	q.VATAmount = totals.VATAmount
	q.Total = totals.Total
}
