package referral_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/referral"
	"github.com/dmitrymomot/quotekit/internal/store/memory"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateReferral(ctx context.Context, r *referral.Referral) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) GetReferralByReferred(ctx context.Context, id uuid.UUID) (*referral.Referral, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*referral.Referral)
	return r, args.Error(1)
}

func (m *mockStore) ListReferralsByReferrer(ctx context.Context, id uuid.UUID) ([]*referral.Entry, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).([]*referral.Entry)
	return e, args.Error(1)
}

func (m *mockStore) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func seedUser(t *testing.T, store *memory.Store, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, store.UpsertUser(context.Background(), &account.User{ID: id, Email: email, Role: account.RoleUser}))
	return id
}

func TestService_CreateAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	svc := referral.NewService(store, "https://quotes.example.com/")

	referrer := seedUser(t, store, "ref@example.com")
	referred := seedUser(t, store, "new@example.com")

	r, err := svc.Create(ctx, referred, " "+referrer.String()+" ")
	require.NoError(t, err)
	assert.Equal(t, referral.StatusPending, r.Status)
	assert.False(t, r.RewardGiven)
	assert.Equal(t, referrer, r.ReferrerID)

	overview, err := svc.List(ctx, referrer)
	require.NoError(t, err)
	require.Len(t, overview.Referrals, 1)
	assert.Equal(t, "new@example.com", overview.Referrals[0].ReferredEmail)
	assert.Equal(t, "https://quotes.example.com/signup?ref="+referrer.String(), overview.Link)

	_, err = svc.Create(ctx, referred, referrer.String())
	assert.ErrorIs(t, err, referral.ErrAlreadyReferred)
}

func TestService_CreateErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	svc := referral.NewService(store, "http://localhost")
	user := seedUser(t, store, "me@example.com")

	tests := []struct {
		name       string
		referrerID string
		want       error
	}{
		{name: "empty", referrerID: "  ", want: referral.ErrReferrerIDRequired},
		{name: "malformed", referrerID: "abc", want: referral.ErrInvalidReferrerID},
		{name: "self", referrerID: user.String(), want: referral.ErrSelfReferral},
		{name: "unknown referrer", referrerID: uuid.NewString(), want: referral.ErrReferrerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, user, tt.referrerID)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_StoreFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("lookup failure is wrapped", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		user := uuid.New()
		store.On("GetReferralByReferred", mock.Anything, user).Return(nil, boom)

		_, err := referral.NewService(store, "").Create(ctx, user, uuid.NewString())
		require.ErrorIs(t, err, boom)
		store.AssertNotCalled(t, "CreateReferral", mock.Anything, mock.Anything)
	})

	t.Run("list returns empty slice", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		user := uuid.New()
		store.On("ListReferralsByReferrer", mock.Anything, user).Return(nil, nil)

		overview, err := referral.NewService(store, "").List(ctx, user)
		require.NoError(t, err)
		assert.NotNil(t, overview.Referrals)
		assert.Empty(t, overview.Referrals)
		store.AssertExpectations(t)
	})
}
