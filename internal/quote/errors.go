package quote

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("quote not found")
	ErrInvalidTransition = errors.New("invalid quote status transition")
	ErrInvalidStatus     = errors.New("unknown quote status")
	ErrStatusConflict    = errors.New("quote status changed concurrently")
	ErrShareTokenTaken   = errors.New("share token already in use")
	ErrNoClientEmail     = errors.New("quote has no client email")
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move quote from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
