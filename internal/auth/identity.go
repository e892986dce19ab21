package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/internal/account"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   account.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == account.RoleAdmin
}

type contextKey struct{ name string }

var identityKey = &contextKey{name: "identity"}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity set by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// MustFromContext panics when the route is not behind Middleware.
func MustFromContext(ctx context.Context) Identity {
	id, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoIdentity)
	}
	return id
}
