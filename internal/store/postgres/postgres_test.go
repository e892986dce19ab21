package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/billing"
	"github.com/dmitrymomot/quotekit/internal/plan"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/internal/referral"
	"github.com/dmitrymomot/quotekit/internal/store/postgres"
	"github.com/dmitrymomot/quotekit/pkg/logger"
)

func TestConnect_Validation(t *testing.T) {
	t.Parallel()

	_, err := postgres.Connect(context.Background(), postgres.Config{})
	assert.ErrorIs(t, err, postgres.ErrEmptyConnectionString)

	_, err = postgres.Connect(context.Background(), postgres.Config{ConnectionString: "://bad"})
	assert.ErrorIs(t, err, postgres.ErrFailedToParseDBConfig)
}

func TestConnect_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := postgres.Connect(ctx, postgres.Config{
		ConnectionString: "postgres://nobody@127.0.0.1:1/none?connect_timeout=1",
		RetryAttempts:    3,
		RetryInterval:    time.Second,
	})
	assert.ErrorIs(t, err, postgres.ErrFailedToOpenDBConnection)
}

// openStore needs a disposable database in PG_TEST_URL; the schema is migrated in.
func openStore(t *testing.T) (*postgres.Store, *pgxpool.Pool) {
	t.Helper()
	url := os.Getenv("PG_TEST_URL")
	if url == "" {
		t.Skip("PG_TEST_URL not set")
	}
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, postgres.Config{ConnectionString: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool, "schema_migrations", logger.Discard()))
	require.NoError(t, postgres.Healthcheck(pool)(ctx))
	return postgres.New(pool), pool
}

func seedUser(t *testing.T, s *postgres.Store) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, s.UpsertUser(context.Background(), &account.User{
		ID: id, Email: id.String()[:8] + "@example.com", Role: account.RoleUser, CreatedAt: time.Now().UTC(),
	}))
	return id
}

func TestStore_QuoteLifecycle(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	userID := seedUser(t, s)

	svc := quote.NewService(s, plan.NewGate(s))
	q, err := svc.Create(ctx, userID, quote.CreateInput{
		ClientName: "Jane Smith",
		Items: []quote.ItemInput{
			{Description: "Labour", Quantity: decimal.RequireFromString("2.5"), UnitPrice: decimal.RequireFromString("40")},
			{Description: "Materials", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("19.99")},
		},
	})
	require.NoError(t, err)

	got, err := s.GetQuote(ctx, userID, q.ID)
	require.NoError(t, err)
	require.Len(t, got.LineItems, 2)
	assert.Equal(t, "Labour", got.LineItems[0].Description)
	assert.True(t, got.Total.Equal(q.Total), "%s != %s", got.Total, q.Total)

	_, err = s.GetQuote(ctx, uuid.New(), q.ID)
	assert.ErrorIs(t, err, quote.ErrNotFound)

	n, err := s.CountQuotes(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	now := time.Now().UTC()
	require.NoError(t, s.UpdateQuoteStatus(ctx, q.ID, quote.StatusDraft, quote.StatusSent, now))
	assert.ErrorIs(t, s.UpdateQuoteStatus(ctx, q.ID, quote.StatusDraft, quote.StatusSent, now), quote.ErrStatusConflict)
	assert.ErrorIs(t, s.UpdateQuoteStatus(ctx, uuid.New(), quote.StatusDraft, quote.StatusSent, now), quote.ErrNotFound)

	token := "tok-" + uuid.NewString()
	set, err := s.SetShareToken(ctx, q.ID, token, now)
	require.NoError(t, err)
	assert.True(t, set)
	set, err = s.SetShareToken(ctx, q.ID, "other", now)
	require.NoError(t, err)
	assert.False(t, set)

	shared, err := s.GetQuoteByShareToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, q.ID, shared.ID)

	require.NoError(t, s.DeleteQuote(ctx, userID, q.ID))
	assert.ErrorIs(t, s.DeleteQuote(ctx, userID, q.ID), quote.ErrNotFound)
}

func TestStore_Subscriptions(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	userID := seedUser(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.GetSubscriptionByUser(ctx, userID)
	assert.ErrorIs(t, err, billing.ErrSubscriptionNotFound)

	sub := &billing.Subscription{
		ID: uuid.New(), UserID: userID, CustomerID: "cus_" + userID.String(), SubscriptionID: "sub_" + userID.String(),
		Status: billing.StatusActive, Plan: billing.PlanMonthly,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(0, 1, 0), CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.UpsertSubscription(ctx, sub))

	replay := *sub
	replay.ID = uuid.New()
	replay.Plan = billing.PlanYearly
	require.NoError(t, s.UpsertSubscription(ctx, &replay))

	got, err := s.GetSubscriptionByCustomer(ctx, sub.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID, "upsert keeps the original row id")
	assert.Equal(t, billing.PlanYearly, got.Plan)

	got.Status = billing.StatusPastDue
	require.NoError(t, s.UpdateSubscription(ctx, got))
	got, err = s.GetSubscriptionByExternalID(ctx, sub.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPastDue, got.Status)

	require.NoError(t, s.CreatePayment(ctx, &billing.Payment{
		ID: uuid.New(), UserID: userID, SubscriptionID: sub.SubscriptionID,
		Amount: billing.MinorToMajor(5999), Currency: "gbp", Status: billing.PaymentSucceeded, CreatedAt: now,
	}))
	payments, err := s.ListPayments(ctx, userID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "59.99", payments[0].Amount.String())
}

func TestStore_SubscriptionByCustomerPrefersLatest(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	customerID := "cus_shared_" + uuid.NewString()

	older := &billing.Subscription{
		ID: uuid.New(), UserID: seedUser(t, s), CustomerID: customerID,
		Status: billing.StatusCancelled, Plan: billing.PlanMonthly,
		CurrentPeriodStart: now, CurrentPeriodEnd: now, CreatedAt: now, UpdatedAt: now.Add(-time.Hour),
	}
	newer := &billing.Subscription{
		ID: uuid.New(), UserID: seedUser(t, s), CustomerID: customerID,
		Status: billing.StatusActive, Plan: billing.PlanYearly,
		CurrentPeriodStart: now, CurrentPeriodEnd: now.AddDate(1, 0, 0), CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.UpsertSubscription(ctx, newer))
	require.NoError(t, s.UpsertSubscription(ctx, older))

	got, err := s.GetSubscriptionByCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestStore_Referrals(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	referrer := seedUser(t, s)
	referred := seedUser(t, s)

	r := &referral.Referral{ID: uuid.New(), ReferrerID: referrer, ReferredID: referred, Status: referral.StatusPending, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateReferral(ctx, r))

	dup := *r
	dup.ID = uuid.New()
	assert.ErrorIs(t, s.CreateReferral(ctx, &dup), referral.ErrAlreadyReferred)

	entries, err := s.ListReferralsByReferrer(ctx, referrer)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ReferredEmail)

	_, err = s.GetReferralByReferred(ctx, referrer)
	assert.ErrorIs(t, err, referral.ErrNotFound)
}

func TestStore_AccountsAndAdmin(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	userID := seedUser(t, s)

	_, err := s.GetProfile(ctx, userID)
	assert.ErrorIs(t, err, account.ErrProfileNotFound)

	require.NoError(t, s.UpsertProfile(ctx, &account.Profile{UserID: userID, BusinessName: "Smith Joinery", UpdatedAt: time.Now().UTC()}))
	p, err := s.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Smith Joinery", p.BusinessName)

	users, err := s.ListUserSummaries(ctx)
	require.NoError(t, err)
	var found bool
	for _, u := range users {
		if u.ID == userID {
			found = true
			assert.Nil(t, u.Subscription)
		}
	}
	assert.True(t, found)
}
