package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/pkg/logger"
)

// Customer identifies the user starting a checkout.
type Customer struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// EventObserver is notified after every webhook event with its outcome:
// "applied", "ignored", "failed" or "malformed".
type EventObserver func(provider, kind, outcome string)

// Service is the billing entry point used by the HTTP layer.
type Service struct {
	provider       Provider
	store          Store
	reconciler     *Reconciler
	log            *slog.Logger
	baseURL        string
	webhookTimeout time.Duration
	observe        EventObserver
}

// ServiceOption configures optional Service settings.
type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBaseURL sets the application URL used for checkout and portal redirects.
func WithBaseURL(u string) ServiceOption {
	return func(s *Service) {
		s.baseURL = u
	}
}

// WithWebhookTimeout bounds the processing of a single webhook.
func WithWebhookTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.webhookTimeout = d
		}
	}
}

// WithEventObserver installs a hook for metrics.
func WithEventObserver(fn EventObserver) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.observe = fn
		}
	}
}

// NewService panics on a nil provider or store to fail fast during wiring.
func NewService(provider Provider, store Store, opts ...ServiceOption) *Service {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if store == nil {
		panic("billing: Store is required")
	}

	s := &Service{
		provider:       provider,
		store:          store,
		log:            logger.Discard(),
		baseURL:        "http://localhost:8080",
		webhookTimeout: 10 * time.Second,
		observe:        func(string, string, string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reconciler = NewReconciler(store, s.log)
	return s
}

// SignatureHeader names the header the webhook signature arrives in.
func (s *Service) SignatureHeader() string {
	return s.provider.SignatureHeader()
}

// HandleWebhook verifies and applies one webhook delivery.
// Only ErrSignatureInvalid is returned for an unauthentic payload; every other
// failure after verification is logged and acknowledged with a nil error.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, s.webhookTimeout)
	defer cancel()

	provider := s.provider.Name()

	ev, err := s.provider.ParseEvent(ctx, payload, signature)
	switch {
	case errors.Is(err, ErrSignatureInvalid):
		s.log.WarnContext(ctx, "webhook rejected", slog.String("provider", provider), logger.Error(err))
		s.observe(provider, "unverified", "rejected")
		return ErrSignatureInvalid
	case err != nil:
		s.log.ErrorContext(ctx, "webhook payload could not be decoded", slog.String("provider", provider), logger.Error(err))
		s.observe(provider, "unknown", "malformed")
		return nil
	}

	if _, ok := ev.(UnknownEvent); ok {
		s.observe(provider, ev.Kind(), "ignored")
		return s.reconciler.Apply(ctx, ev)
	}

	start := time.Now()
	if err := s.reconciler.Apply(ctx, ev); err != nil {
		s.log.ErrorContext(ctx, "billing event processing failed",
			slog.String("provider", provider),
			slog.String("kind", ev.Kind()),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		s.observe(provider, ev.Kind(), "failed")
		return nil
	}

	s.log.DebugContext(ctx, "billing event applied",
		slog.String("provider", provider),
		slog.String("kind", ev.Kind()),
		logger.Duration(time.Since(start)),
	)
	s.observe(provider, ev.Kind(), "applied")
	return nil
}

// Checkout starts a hosted checkout for plan ("monthly" or "yearly"). The stored
// customer id is reused; otherwise a new processor customer is created.
func (s *Service) Checkout(ctx context.Context, c Customer, plan string) (*CheckoutSession, error) {
	p, err := ParsePlan(plan)
	if err != nil {
		return nil, err
	}

	var customerID string
	sub, err := s.store.GetSubscriptionByUser(ctx, c.UserID)
	switch {
	case err == nil:
		customerID = sub.CustomerID
	case !errors.Is(err, ErrSubscriptionNotFound):
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	if customerID == "" {
		customerID, err = s.provider.CreateCustomer(ctx, CustomerRequest{UserID: c.UserID, Email: c.Email, Name: c.Name})
		if err != nil {
			return nil, fmt.Errorf("failed to create billing customer: %w", err)
		}
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		CustomerID: customerID,
		UserID:     c.UserID,
		Plan:       p,
		SuccessURL: s.baseURL + "/dashboard/billing?success=true",
		CancelURL:  s.baseURL + "/dashboard/billing?canceled=true",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.log.InfoContext(ctx, "checkout session created", logger.UserID(c.UserID), slog.String("plan", string(p)))
	return session, nil
}

// Portal returns a customer portal link. It requires a stored customer id.
func (s *Service) Portal(ctx context.Context, userID uuid.UUID) (*PortalSession, error) {
	sub, err := s.store.GetSubscriptionByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.CustomerID == "" {
		return nil, ErrSubscriptionNotFound
	}

	portal, err := s.provider.CreatePortalSession(ctx, sub.CustomerID, s.baseURL+"/dashboard/billing")
	if err != nil {
		return nil, fmt.Errorf("failed to create portal session: %w", err)
	}
	return portal, nil
}

// Subscription returns the user's subscription or ErrSubscriptionNotFound.
func (s *Service) Subscription(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.store.GetSubscriptionByUser(ctx, userID)
}

// Payments returns the user's payment ledger, newest first.
func (s *Service) Payments(ctx context.Context, userID uuid.UUID) ([]*Payment, error) {
	return s.store.ListPayments(ctx, userID)
}
