package auth

import "errors"

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrMissingSecret = errors.New("jwt signing secret is required")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNoIdentity    = errors.New("no identity in context")
)
