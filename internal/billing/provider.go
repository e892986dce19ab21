package billing

import (
	"context"

	"github.com/google/uuid"
)

// Provider is a hosted billing processor.
//
// Implementations use the processor's official SDK. They authenticate webhook
// payloads before decoding anything: a verification failure must wrap
// ErrSignatureInvalid, a decoding failure of an authentic payload must wrap
// ErrMalformedEvent.
type Provider interface {
	// Name identifies the processor in logs and metrics.
	Name() string
	// SignatureHeader is the HTTP header carrying the webhook signature.
	SignatureHeader() string
	ParseEvent(ctx context.Context, payload []byte, signature string) (Event, error)
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error)
}

// CustomerRequest creates a processor-side customer for a user.
type CustomerRequest struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// CheckoutRequest starts a hosted subscription checkout.
// UserID and Plan travel as metadata and come back on the completion event.
type CheckoutRequest struct {
	CustomerID string
	UserID     uuid.UUID
	Plan       Plan
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a hosted checkout page.
type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// PortalSession is a pre-authenticated customer portal page.
type PortalSession struct {
	URL string `json:"url"`
}

// PriceIDs maps plans to processor price identifiers.
type PriceIDs struct {
	Monthly string
	Yearly  string
}

func (p PriceIDs) For(plan Plan) (string, error) {
	var id string
	switch plan {
	case PlanMonthly:
		id = p.Monthly
	case PlanYearly:
		id = p.Yearly
	default:
		return "", ErrInvalidPlan
	}
	if id == "" {
		return "", ErrMissingPriceID
	}
	return id, nil
}
