package account_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/store/memory"
	"github.com/dmitrymomot/quotekit/pkg/validator"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	assert.Equal(t, account.RoleAdmin, account.ParseRole("admin"))
	assert.Equal(t, account.RoleAdmin, account.ParseRole("ADMIN"))
	assert.Equal(t, account.RoleUser, account.ParseRole("user"))
	assert.Equal(t, account.RoleUser, account.ParseRole(""))
	assert.Equal(t, account.RoleUser, account.ParseRole("root"))
}

func TestService_Sync(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := account.NewService(memory.New())
	id := uuid.New()

	first, err := svc.Sync(ctx, id, "old@example.com", "Old", account.RoleUser)
	require.NoError(t, err)

	second, err := svc.Sync(ctx, id, "new@example.com", "New", account.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "first sighting is kept")

	u, err := svc.User(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, account.RoleAdmin, u.Role)

	_, err = svc.User(ctx, uuid.New())
	assert.ErrorIs(t, err, account.ErrUserNotFound)
}

func TestService_Profile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := account.NewService(memory.New())
	userID := uuid.New()

	t.Run("empty until saved", func(t *testing.T) {
		p, err := svc.Profile(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, p.IsEmpty())
	})

	t.Run("update trims and replaces", func(t *testing.T) {
		saved, err := svc.UpdateProfile(ctx, userID, account.ProfileInput{
			BusinessName: "  Smith Plumbing ",
			Phone:        "0123",
			Website:      "https://smith.example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "Smith Plumbing", saved.BusinessName)
		assert.False(t, saved.UpdatedAt.IsZero())

		_, err = svc.UpdateProfile(ctx, userID, account.ProfileInput{BusinessName: "Smith & Sons"})
		require.NoError(t, err)

		p, err := svc.Profile(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "Smith & Sons", p.BusinessName)
		assert.Empty(t, p.Phone)
		assert.Empty(t, p.Website)
	})

	t.Run("rejects invalid website", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, userID, account.ProfileInput{Website: "ftp://nope"})
		require.Error(t, err)
		verrs := validator.ExtractValidationErrors(err)
		assert.True(t, verrs.Has("website"))
	})

	t.Run("rejects long business name", func(t *testing.T) {
		long := make([]rune, 201)
		for i := range long {
			long[i] = 'é'
		}
		_, err := svc.UpdateProfile(ctx, userID, account.ProfileInput{BusinessName: string(long)})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))
	})
}

func TestNewService_PanicsWithoutStore(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { account.NewService(nil) })
}
