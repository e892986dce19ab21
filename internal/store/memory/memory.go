// Package memory is a process-local implementation of every store interface.
// It backs STORE_DRIVER=memory and the service-level tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/admin"
	"github.com/dmitrymomot/quotekit/internal/billing"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/internal/referral"
)

// Store is safe for concurrent use. Values are copied on the way in and out.
type Store struct {
	mu            sync.RWMutex
	quotes        map[uuid.UUID]*quote.Quote
	subscriptions map[uuid.UUID]*billing.Subscription // by user id
	payments      []*billing.Payment
	users         map[uuid.UUID]*account.User
	profiles      map[uuid.UUID]*account.Profile
	referrals     []*referral.Referral
}

func New() *Store {
	return &Store{
		quotes:        make(map[uuid.UUID]*quote.Quote),
		subscriptions: make(map[uuid.UUID]*billing.Subscription),
		users:         make(map[uuid.UUID]*account.User),
		profiles:      make(map[uuid.UUID]*account.Profile),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Quotes

func (s *Store) CreateQuote(_ context.Context, q *quote.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.ID] = copyQuote(q)
	return nil
}

func (s *Store) GetQuote(_ context.Context, userID, id uuid.UUID) (*quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[id]
	if !ok || q.UserID != userID {
		return nil, quote.ErrNotFound
	}
	return copyQuote(q), nil
}

func (s *Store) GetQuoteByID(_ context.Context, id uuid.UUID) (*quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[id]
	if !ok {
		return nil, quote.ErrNotFound
	}
	return copyQuote(q), nil
}

func (s *Store) ListQuotes(_ context.Context, userID uuid.UUID) ([]*quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*quote.Quote, 0)
	for _, q := range s.quotes {
		if q.UserID == userID {
			out = append(out, copyQuote(q))
		}
	}
	sortQuotes(out)
	return out, nil
}

func (s *Store) CountQuotes(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, q := range s.quotes {
		if q.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateQuoteStatus(_ context.Context, id uuid.UUID, from, to quote.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok {
		return quote.ErrNotFound
	}
	if q.Status != from {
		return quote.ErrStatusConflict
	}
	q.Status = to
	q.UpdatedAt = at
	return nil
}

func (s *Store) ReplaceLineItems(_ context.Context, in *quote.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[in.ID]
	if !ok || q.UserID != in.UserID {
		return quote.ErrNotFound
	}
	q.LineItems = slices.Clone(in.LineItems)
	q.Subtotal = in.Subtotal
	q.VATRate = in.VATRate
	q.VATAmount = in.VATAmount
	q.Discount = in.Discount
	q.Total = in.Total
	q.UpdatedAt = in.UpdatedAt
	return nil
}

func (s *Store) DeleteQuote(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok || q.UserID != userID {
		return quote.ErrNotFound
	}
	delete(s.quotes, id)
	return nil
}

func (s *Store) SetShareToken(_ context.Context, id uuid.UUID, token string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok {
		return false, quote.ErrNotFound
	}
	if q.ShareToken != nil {
		return false, nil
	}
	for _, other := range s.quotes {
		if other.ShareToken != nil && *other.ShareToken == token {
			return false, quote.ErrShareTokenTaken
		}
	}
	q.ShareToken = &token
	q.UpdatedAt = at
	return true, nil
}

func (s *Store) GetQuoteByShareToken(_ context.Context, token string) (*quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.quotes {
		if q.ShareToken != nil && *q.ShareToken == token {
			return copyQuote(q), nil
		}
	}
	return nil, quote.ErrNotFound
}

// Subscriptions and payments

func (s *Store) GetSubscriptionByUser(_ context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[userID]
	if !ok {
		return nil, billing.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *Store) GetSubscriptionByCustomer(_ context.Context, customerID string) (*billing.Subscription, error) {
	return s.findSubscription(func(sub *billing.Subscription) bool {
		return customerID != "" && sub.CustomerID == customerID
	})
}

func (s *Store) GetSubscriptionByExternalID(_ context.Context, subscriptionID string) (*billing.Subscription, error) {
	return s.findSubscription(func(sub *billing.Subscription) bool {
		return subscriptionID != "" && sub.SubscriptionID == subscriptionID
	})
}

// findSubscription returns the most recently updated match.
func (s *Store) findSubscription(match func(*billing.Subscription) bool) (*billing.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *billing.Subscription
	for _, sub := range s.subscriptions {
		if match(sub) && (found == nil || sub.UpdatedAt.After(found.UpdatedAt)) {
			found = sub
		}
	}
	if found == nil {
		return nil, billing.ErrSubscriptionNotFound
	}
	cp := *found
	return &cp, nil
}

func (s *Store) UpsertSubscription(_ context.Context, sub *billing.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	if existing, ok := s.subscriptions[sub.UserID]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	}
	s.subscriptions[sub.UserID] = &cp
	return nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub *billing.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.subscriptions[sub.UserID]
	if !ok {
		return billing.ErrSubscriptionNotFound
	}
	existing.Status = sub.Status
	existing.CurrentPeriodStart = sub.CurrentPeriodStart
	existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
	existing.UpdatedAt = sub.UpdatedAt
	return nil
}

func (s *Store) CreatePayment(_ context.Context, p *billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments = append(s.payments, &cp)
	return nil
}

func (s *Store) ListPayments(_ context.Context, userID uuid.UUID) ([]*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*billing.Payment, 0)
	for i := len(s.payments) - 1; i >= 0; i-- {
		if p := s.payments[i]; p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

// Users and profiles

func (s *Store) UpsertUser(_ context.Context, u *account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	if existing, ok := s.users[u.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
		u.CreatedAt = existing.CreatedAt
	}
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *Store) GetProfile(_ context.Context, userID uuid.UUID) (*account.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, account.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpsertProfile(_ context.Context, p *account.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

// Referrals

func (s *Store) CreateReferral(_ context.Context, r *referral.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.referrals {
		if existing.ReferredID == r.ReferredID {
			return referral.ErrAlreadyReferred
		}
	}
	cp := *r
	s.referrals = append(s.referrals, &cp)
	return nil
}

func (s *Store) GetReferralByReferred(_ context.Context, referredID uuid.UUID) (*referral.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.referrals {
		if r.ReferredID == referredID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, referral.ErrNotFound
}

func (s *Store) ListReferralsByReferrer(_ context.Context, referrerID uuid.UUID) ([]*referral.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*referral.Entry, 0)
	for i := len(s.referrals) - 1; i >= 0; i-- {
		r := s.referrals[i]
		if r.ReferrerID != referrerID {
			continue
		}
		e := &referral.Entry{Referral: *r}
		if u, ok := s.users[r.ReferredID]; ok {
			e.ReferredEmail = u.Email
			e.ReferredName = u.Name
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

// Admin listings

func (s *Store) ListUserSummaries(_ context.Context) ([]*admin.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[uuid.UUID]int)
	for _, q := range s.quotes {
		counts[q.UserID]++
	}
	out := make([]*admin.UserSummary, 0, len(s.users))
	for id, u := range s.users {
		sum := &admin.UserSummary{User: *u, QuoteCount: counts[id]}
		if sub, ok := s.subscriptions[id]; ok {
			cp := *sub
			sum.Subscription = &cp
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (s *Store) ListQuoteSummaries(_ context.Context) ([]*admin.QuoteSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*admin.QuoteSummary, 0, len(s.quotes))
	for _, q := range s.quotes {
		sum := &admin.QuoteSummary{
			ID:         q.ID,
			UserID:     q.UserID,
			Title:      q.Title,
			ClientName: q.ClientName,
			Total:      q.Total,
			Status:     q.Status,
			CreatedAt:  q.CreatedAt,
		}
		if u, ok := s.users[q.UserID]; ok {
			sum.OwnerEmail = u.Email
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func copyQuote(q *quote.Quote) *quote.Quote {
	cp := *q
	cp.LineItems = slices.Clone(q.LineItems)
	if q.ShareToken != nil {
		t := *q.ShareToken
		cp.ShareToken = &t
	}
	return &cp
}

// sortQuotes orders newest first with the id as a tiebreaker.
func sortQuotes(qs []*quote.Quote) {
	sort.Slice(qs, func(a, b int) bool {
		if !qs[a].CreatedAt.Equal(qs[b].CreatedAt) {
			return qs[a].CreatedAt.After(qs[b].CreatedAt)
		}
		return qs[a].ID.String() < qs[b].ID.String()
	})
}
