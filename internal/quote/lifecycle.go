package quote

// transition is one owner-driven edge of the lifecycle, named by its event.
type transition struct {
	event string
	to    Status
}

// transitions is keyed by the source state. EXPIRED has no owner-driven edge:
// it is reached only through Service.Expire.
var transitions = map[Status][]transition{
	StatusDraft: {{event: "send", to: StatusSent}},
	StatusSent: {
		{event: "accept", to: StatusAccepted},
		{event: "reject", to: StatusRejected},
	},
}

// CheckTransition returns a *TransitionError unless from → to is an owner-driven edge.
func CheckTransition(from, to Status) error {
	for _, t := range transitions[from] {
		if t.to == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// CanTransition reports whether the owner may move a quote from → to.
func CanTransition(from, to Status) bool {
	return CheckTransition(from, to) == nil
}

// Event names the edge from → to ("send", "accept", "reject").
func Event(from, to Status) (string, bool) {
	for _, t := range transitions[from] {
		if t.to == to {
			return t.event, true
		}
	}
	return "", false
}

// AllowedTargets lists the states the owner can move a quote to from the given state.
func AllowedTargets(from Status) []Status {
	out := make([]Status, 0, len(transitions[from]))
	for _, t := range transitions[from] {
		out = append(out, t.to)
	}
	return out
}

// CanExpire reports whether the system expiry path applies.
func CanExpire(from Status) bool {
	return !from.IsTerminal()
}
