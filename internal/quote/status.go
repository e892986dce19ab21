package quote

import (
	"fmt"
	"slices"
	"strings"
)

// Status is the quote lifecycle state.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusExpired  Status = "EXPIRED"
)

// Statuses lists every state in display order.
var Statuses = []Status{StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired}

// ParseStatus accepts any letter case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(Statuses, st) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusExpired
}

func (s Status) String() string {
	return string(s)
}
