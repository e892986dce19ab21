package billing

import "time"

// Event is a verified billing event. The set of implementations is closed.
type Event interface {
	// Kind is a stable name used in logs and metrics.
	Kind() string
	isEvent()
}

// Meta is common to every event.
type Meta struct {
	ID        string
	Type      string // provider event name
	CreatedAt time.Time
}

// CheckoutCompleted is a finished hosted checkout that started a subscription.
type CheckoutCompleted struct {
	Meta
	UserID          string // from checkout metadata
	Plan            string // from checkout metadata
	CustomerID      string
	SubscriptionID  string
	PaymentIntentID string
	AmountTotal     int64 // minor units
	Currency        string
	PeriodStart     *time.Time
	PeriodEnd       *time.Time
}

// SubscriptionUpdated carries the processor's view of a subscription.
type SubscriptionUpdated struct {
	Meta
	CustomerID     string
	SubscriptionID string
	Status         string // provider status
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// SubscriptionDeleted marks the end of a subscription.
type SubscriptionDeleted struct {
	Meta
	CustomerID     string
	SubscriptionID string
}

// InvoicePaid is a successful recurring charge.
type InvoicePaid struct {
	Meta
	SubscriptionID  string
	PaymentIntentID string
	AmountPaid      int64 // minor units
	Currency        string
}

// InvoicePaymentFailed is a failed recurring charge.
type InvoicePaymentFailed struct {
	Meta
	SubscriptionID  string
	PaymentIntentID string
	AmountDue       int64 // minor units
	Currency        string
}

// UnknownEvent is any verified event the service does not act on.
type UnknownEvent struct {
	Meta
}

func (CheckoutCompleted) Kind() string    { return "checkout_completed" }
func (SubscriptionUpdated) Kind() string  { return "subscription_updated" }
func (SubscriptionDeleted) Kind() string  { return "subscription_deleted" }
func (InvoicePaid) Kind() string          { return "invoice_paid" }
func (InvoicePaymentFailed) Kind() string { return "invoice_payment_failed" }
func (UnknownEvent) Kind() string         { return "unknown" }

func (CheckoutCompleted) isEvent()    {}
func (SubscriptionUpdated) isEvent()  {}
func (SubscriptionDeleted) isEvent()  {}
func (InvoicePaid) isEvent()          {}
func (InvoicePaymentFailed) isEvent() {}
func (UnknownEvent) isEvent()         {}
