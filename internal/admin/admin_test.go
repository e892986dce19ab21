package admin_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/admin"
	"github.com/dmitrymomot/quotekit/internal/billing"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/internal/store/memory"
)

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) Expire(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	args := m.Called(ctx, id)
	q, _ := args.Get(0).(*quote.Quote)
	return q, args.Error(1)
}

func TestService_Listings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()

	older := &account.User{ID: uuid.New(), Email: "old@example.com", Role: account.RoleUser, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &account.User{ID: uuid.New(), Email: "new@example.com", Role: account.RoleAdmin, CreatedAt: time.Now()}
	require.NoError(t, store.UpsertUser(ctx, older))
	require.NoError(t, store.UpsertUser(ctx, newer))
	require.NoError(t, store.UpsertSubscription(ctx, &billing.Subscription{
		ID:     uuid.New(),
		UserID: older.ID,
		Status: billing.StatusActive,
		Plan:   billing.PlanMonthly,
	}))
	require.NoError(t, store.CreateQuote(ctx, &quote.Quote{
		ID:         uuid.New(),
		UserID:     older.ID,
		ClientName: "Acme",
		Total:      decimal.NewFromInt(42),
		Status:     quote.StatusDraft,
		CreatedAt:  time.Now(),
	}))

	svc := admin.NewService(store, &mockExpirer{})

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, newer.ID, users[0].ID)
	assert.Nil(t, users[0].Subscription)
	assert.Equal(t, 1, users[1].QuoteCount)
	require.NotNil(t, users[1].Subscription)
	assert.Equal(t, billing.StatusActive, users[1].Subscription.Status)

	quotes, err := svc.Quotes(ctx)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "old@example.com", quotes[0].OwnerEmail)
	assert.Equal(t, "42", quotes[0].Total.String())
}

func TestService_ExpireQuote(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	exp := &mockExpirer{}
	exp.On("Expire", mock.Anything, id).Return(&quote.Quote{ID: id, Status: quote.StatusExpired}, nil)

	q, err := admin.NewService(memory.New(), exp).ExpireQuote(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, quote.StatusExpired, q.Status)
	exp.AssertExpectations(t)
}

func TestNewService_Panics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { admin.NewService(nil, &mockExpirer{}) })
	assert.Panics(t, func() { admin.NewService(memory.New(), nil) })
}
