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

// Reconciler applies verified billing events to storage.
type Reconciler struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewReconciler panics on a nil store.
func NewReconciler(store Store, log *slog.Logger) *Reconciler {
	if store == nil {
		panic("billing: Store is required")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Reconciler{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Apply dispatches one event. Events that cannot be matched to local state are
// logged no-ops; only storage failures are returned.
func (r *Reconciler) Apply(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case CheckoutCompleted:
		return r.checkoutCompleted(ctx, e)
	case SubscriptionUpdated:
		return r.subscriptionUpdated(ctx, e)
	case SubscriptionDeleted:
		return r.subscriptionDeleted(ctx, e)
	case InvoicePaid:
		return r.recordInvoice(ctx, e.Meta, e.SubscriptionID, e.PaymentIntentID, e.AmountPaid, e.Currency, PaymentSucceeded)
	case InvoicePaymentFailed:
		return r.recordInvoice(ctx, e.Meta, e.SubscriptionID, e.PaymentIntentID, e.AmountDue, e.Currency, PaymentFailed)
	case UnknownEvent:
		r.log.DebugContext(ctx, "billing event ignored", logger.EventType(e.Type))
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("%w: unsupported event type %T", ErrMalformedEvent, ev)
	}
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, e CheckoutCompleted) error {
	if e.UserID == "" {
		r.log.WarnContext(ctx, "checkout completed without user id", logger.EventType(e.Type), logger.CustomerID(e.CustomerID))
		return nil
	}
	userID, err := uuid.Parse(e.UserID)
	if err != nil {
		r.log.WarnContext(ctx, "checkout completed with malformed user id",
			logger.EventType(e.Type), slog.String("metadata_user_id", e.UserID))
		return nil
	}

	plan := PlanFromMetadata(e.Plan)
	start, end := checkoutPeriod(e, plan)
	now := r.now()

	sub := &Subscription{
		ID:                 uuid.New(),
		UserID:             userID,
		CustomerID:         e.CustomerID,
		SubscriptionID:     e.SubscriptionID,
		Status:             StatusActive,
		Plan:               plan,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := r.store.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	payment := &Payment{
		ID:              uuid.New(),
		UserID:          userID,
		SubscriptionID:  e.SubscriptionID,
		PaymentIntentID: e.PaymentIntentID,
		Amount:          MinorToMajor(e.AmountTotal),
		Currency:        e.Currency,
		Status:          PaymentSucceeded,
		CreatedAt:       now,
	}
	if err := r.store.CreatePayment(ctx, payment); err != nil {
		return fmt.Errorf("failed to record checkout payment: %w", err)
	}

	r.log.InfoContext(ctx, "subscription activated", logger.UserID(userID), slog.String("plan", string(plan)))
	return nil
}

// checkoutPeriod prefers explicit period fields, otherwise derives one plan interval from the event time.
func checkoutPeriod(e CheckoutCompleted, plan Plan) (time.Time, time.Time) {
	if e.PeriodStart != nil && e.PeriodEnd != nil {
		return e.PeriodStart.UTC(), e.PeriodEnd.UTC()
	}
	start := e.CreatedAt.UTC()
	return start, plan.Period(start)
}

func (r *Reconciler) subscriptionUpdated(ctx context.Context, e SubscriptionUpdated) error {
	sub, err := r.store.GetSubscriptionByCustomer(ctx, e.CustomerID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		r.log.WarnContext(ctx, "no subscription for customer", logger.EventType(e.Type), logger.CustomerID(e.CustomerID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	sub.Status = MapProviderStatus(e.Status)
	if !e.PeriodStart.IsZero() {
		sub.CurrentPeriodStart = e.PeriodStart.UTC()
	}
	if !e.PeriodEnd.IsZero() {
		sub.CurrentPeriodEnd = e.PeriodEnd.UTC()
	}
	sub.UpdatedAt = r.now()

	if err := r.store.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	r.log.InfoContext(ctx, "subscription updated", logger.UserID(sub.UserID), slog.String("status", string(sub.Status)))
	return nil
}

func (r *Reconciler) subscriptionDeleted(ctx context.Context, e SubscriptionDeleted) error {
	sub, err := r.store.GetSubscriptionByCustomer(ctx, e.CustomerID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		r.log.WarnContext(ctx, "no subscription for customer", logger.EventType(e.Type), logger.CustomerID(e.CustomerID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	sub.Status = StatusCancelled
	sub.UpdatedAt = r.now()
	if err := r.store.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	r.log.InfoContext(ctx, "subscription cancelled", logger.UserID(sub.UserID))
	return nil
}

func (r *Reconciler) recordInvoice(ctx context.Context, meta Meta, subscriptionID, paymentIntentID string, amount int64, currency string, status PaymentStatus) error {
	if subscriptionID == "" {
		return nil
	}

	sub, err := r.store.GetSubscriptionByExternalID(ctx, subscriptionID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		r.log.DebugContext(ctx, "invoice for unknown subscription", logger.EventType(meta.Type), slog.String("subscription_id", subscriptionID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	payment := &Payment{
		ID:              uuid.New(),
		UserID:          sub.UserID,
		SubscriptionID:  subscriptionID,
		PaymentIntentID: paymentIntentID,
		Amount:          MinorToMajor(amount),
		Currency:        currency,
		Status:          status,
		CreatedAt:       r.now(),
	}
	if err := r.store.CreatePayment(ctx, payment); err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	r.log.InfoContext(ctx, "payment recorded",
		logger.UserID(sub.UserID),
		slog.String("status", string(status)),
		slog.String("amount", payment.Amount.StringFixed(2)),
	)
	return nil
}
