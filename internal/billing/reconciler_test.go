package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/internal/billing"
	"github.com/dmitrymomot/quotekit/internal/store/memory"
)

var eventTime = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func checkoutEvent(userID uuid.UUID, plan string, amount int64) billing.CheckoutCompleted {
	return billing.CheckoutCompleted{
		Meta:            billing.Meta{ID: "evt_1", Type: "checkout.session.completed", CreatedAt: eventTime},
		UserID:          userID.String(),
		Plan:            plan,
		CustomerID:      "cus_123",
		SubscriptionID:  "sub_123",
		PaymentIntentID: "pi_123",
		AmountTotal:     amount,
		Currency:        "gbp",
	}
}

func TestReconciler_CheckoutCompleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	r := billing.NewReconciler(store, nil)
	userID := uuid.New()

	require.NoError(t, r.Apply(ctx, checkoutEvent(userID, "yearly", 5999)))

	sub, err := store.GetSubscriptionByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusActive, sub.Status)
	assert.Equal(t, billing.PlanYearly, sub.Plan)
	assert.Equal(t, "cus_123", sub.CustomerID)
	assert.Equal(t, "sub_123", sub.SubscriptionID)
	assert.Equal(t, eventTime, sub.CurrentPeriodStart)
	assert.Equal(t, eventTime.AddDate(1, 0, 0), sub.CurrentPeriodEnd)

	payments, err := store.ListPayments(ctx, userID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "59.99", payments[0].Amount.StringFixed(2))
	assert.Equal(t, billing.PaymentSucceeded, payments[0].Status)
	assert.Equal(t, "gbp", payments[0].Currency)
	assert.Equal(t, "pi_123", payments[0].PaymentIntentID)
}

func TestReconciler_CheckoutCompleted_MonthlyAndExplicitPeriod(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	r := billing.NewReconciler(store, nil)
	userID := uuid.New()

	ev := checkoutEvent(userID, "monthly", 999)
	require.NoError(t, r.Apply(ctx, ev))
	sub, err := store.GetSubscriptionByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, billing.PlanMonthly, sub.Plan)
	assert.Equal(t, eventTime.AddDate(0, 1, 0), sub.CurrentPeriodEnd)

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ev.PeriodStart, ev.PeriodEnd = &start, &end
	require.NoError(t, r.Apply(ctx, ev))
	sub, err = store.GetSubscriptionByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, start, sub.CurrentPeriodStart)
	assert.Equal(t, end, sub.CurrentPeriodEnd)
}

func TestReconciler_CheckoutReplay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	r := billing.NewReconciler(store, nil)
	userID := uuid.New()

	ev := checkoutEvent(userID, "yearly", 5999)
	require.NoError(t, r.Apply(ctx, ev))
	first, err := store.GetSubscriptionByUser(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, r.Apply(ctx, ev))
	second, err := store.GetSubscriptionByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "single subscription row")

	payments, err := store.ListPayments(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, payments, 2, "payments are not deduplicated")
}

func TestReconciler_CheckoutWithoutUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	r := billing.NewReconciler(store, nil)

	ev := checkoutEvent(uuid.New(), "yearly", 5999)
	ev.UserID = ""
	require.NoError(t, r.Apply(ctx, ev))

	ev.UserID = "not-a-uuid"
	require.NoError(t, r.Apply(ctx, ev))

	_, err := store.GetSubscriptionByCustomer(ctx, "cus_123")
	assert.ErrorIs(t, err, billing.ErrSubscriptionNotFound)
}

func TestReconciler_SubscriptionUpdated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider string
		want     billing.Status
	}{
		{"active", billing.StatusActive},
		{"past_due", billing.StatusPastDue},
		{"canceled", billing.StatusCancelled},
		{"incomplete", billing.StatusInactive},
		{"trialing", billing.StatusInactive},
		{"unpaid", billing.StatusInactive},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := memory.New()
			r := billing.NewReconciler(store, nil)
			userID := uuid.New()
			require.NoError(t, r.Apply(ctx, checkoutEvent(userID, "monthly", 999)))

			start := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 1, 0)
			require.NoError(t, r.Apply(ctx, billing.SubscriptionUpdated{
				Meta:        billing.Meta{Type: "customer.subscription.updated"},
				CustomerID:  "cus_123",
				Status:      tt.provider,
				PeriodStart: start,
				PeriodEnd:   end,
			}))

			sub, err := store.GetSubscriptionByUser(ctx, userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sub.Status)
			assert.Equal(t, start, sub.CurrentPeriodStart)
			assert.Equal(t, end, sub.CurrentPeriodEnd)
		})
	}
}

func TestReconciler_UnknownCustomerIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	r := billing.NewReconciler(store, nil)

	assert.NoError(t, r.Apply(ctx, billing.SubscriptionUpdated{CustomerID: "cus_missing", Status: "active"}))
	assert.NoError(t, r.Apply(ctx, billing.SubscriptionDeleted{CustomerID: "cus_missing"}))
	assert.NoError(t, r.Apply(ctx, billing.InvoicePaid{SubscriptionID: "sub_missing", AmountPaid: 100}))
	assert.NoError(t, r.Apply(ctx, billing.InvoicePaid{SubscriptionID: "", AmountPaid: 100}))
	assert.NoError(t, r.Apply(ctx, billing.InvoicePaymentFailed{SubscriptionID: "sub_missing", AmountDue: 100}))
	assert.NoError(t, r.Apply(ctx, billing.UnknownEvent{Meta: billing.Meta{Type: "customer.created"}}))
}

func TestReconciler_SubscriptionDeleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	r := billing.NewReconciler(store, nil)
	userID := uuid.New()
	require.NoError(t, r.Apply(ctx, checkoutEvent(userID, "monthly", 999)))

	require.NoError(t, r.Apply(ctx, billing.SubscriptionDeleted{CustomerID: "cus_123", SubscriptionID: "sub_123"}))

	sub, err := store.GetSubscriptionByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCancelled, sub.Status)
}

func TestReconciler_Invoices(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	r := billing.NewReconciler(store, nil)
	userID := uuid.New()
	require.NoError(t, r.Apply(ctx, checkoutEvent(userID, "monthly", 999)))

	require.NoError(t, r.Apply(ctx, billing.InvoicePaid{SubscriptionID: "sub_123", PaymentIntentID: "pi_2", AmountPaid: 999, Currency: "gbp"}))
	require.NoError(t, r.Apply(ctx, billing.InvoicePaymentFailed{SubscriptionID: "sub_123", PaymentIntentID: "pi_3", AmountDue: 1050, Currency: "gbp"}))

	payments, err := store.ListPayments(ctx, userID)
	require.NoError(t, err)
	require.Len(t, payments, 3)

	byIntent := make(map[string]*billing.Payment)
	for _, p := range payments {
		byIntent[p.PaymentIntentID] = p
	}
	assert.Equal(t, billing.PaymentSucceeded, byIntent["pi_2"].Status)
	assert.Equal(t, "9.99", byIntent["pi_2"].Amount.StringFixed(2))
	assert.Equal(t, billing.PaymentFailed, byIntent["pi_3"].Status)
	assert.Equal(t, "10.50", byIntent["pi_3"].Amount.StringFixed(2))
	assert.Equal(t, userID, byIntent["pi_3"].UserID)
}

func TestPlanHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, billing.PlanMonthly, billing.PlanFromMetadata("monthly"))
	assert.Equal(t, billing.PlanYearly, billing.PlanFromMetadata("yearly"))
	assert.Equal(t, billing.PlanYearly, billing.PlanFromMetadata(""))
	assert.Equal(t, billing.PlanYearly, billing.PlanFromMetadata("Monthly"))
	assert.Equal(t, billing.PlanYearly, billing.PlanFromMetadata(" monthly "))

	p, err := billing.ParsePlan("Yearly")
	require.NoError(t, err)
	assert.Equal(t, billing.PlanYearly, p)
	assert.Equal(t, "yearly", p.Key())

	_, err = billing.ParsePlan("weekly")
	assert.ErrorIs(t, err, billing.ErrInvalidPlan)

	assert.Equal(t, "59.99", billing.MinorToMajor(5999).StringFixed(2))
}

func TestMapProviderStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]billing.Status{
		"active":    billing.StatusActive,
		"past_due":  billing.StatusPastDue,
		"canceled":  billing.StatusCancelled,
		"cancelled": billing.StatusInactive,
		"ACTIVE":    billing.StatusInactive,
		"trialing":  billing.StatusInactive,
		"paused":    billing.StatusInactive,
		"":          billing.StatusInactive,
	}
	for in, want := range tests {
		assert.Equal(t, want, billing.MapProviderStatus(in), in)
	}
}
