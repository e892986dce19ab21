package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds configuration for the Stripe provider.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Prices        PriceIDs
}

// StripeAPI is the subset of the Stripe API the provider calls.
type StripeAPI interface {
	NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

// StripeProvider implements Provider for Stripe.
type StripeProvider struct {
	api           StripeAPI
	webhookSecret string
	prices        PriceIDs
	tolerance     time.Duration
}

// StripeOption configures a StripeProvider.
type StripeOption func(*StripeProvider)

// WithStripeAPI replaces the live API client, mostly for tests.
func WithStripeAPI(api StripeAPI) StripeOption {
	return func(p *StripeProvider) {
		if api != nil {
			p.api = api
		}
	}
}

// NewStripeProvider creates a Stripe provider bound to one secret key.
func NewStripeProvider(cfg StripeConfig, opts ...StripeOption) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	p := &StripeProvider{
		api:           newStripeClients(cfg.SecretKey),
		webhookSecret: cfg.WebhookSecret,
		prices:        cfg.Prices,
		tolerance:     webhook.DefaultTolerance,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *StripeProvider) Name() string            { return "stripe" }
func (p *StripeProvider) SignatureHeader() string { return "Stripe-Signature" }

// CreateCustomer creates a Stripe customer tagged with the user id.
func (p *StripeProvider) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
		Name:  stripe.String(req.Name),
	}
	params.Context = ctx
	params.AddMetadata("userId", req.UserID.String())

	c, err := p.api.NewCustomer(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	return c.ID, nil
}

// CreateCheckoutSession creates a subscription-mode hosted checkout.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	priceID, err := p.prices.For(req.Plan)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(req.CustomerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("userId", req.UserID.String())
	params.AddMetadata("plan", req.Plan.Key())

	s, err := p.api.NewCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	if s.URL == "" {
		return nil, ErrNoCheckoutURL
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// CreatePortalSession creates a billing portal session for the customer.
func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	s, err := p.api.NewPortalSession(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe portal session: %w", err)
	}
	if s.URL == "" {
		return nil, ErrNoPortalURL
	}
	return &PortalSession{URL: s.URL}, nil
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
func (p *StripeProvider) ParseEvent(_ context.Context, payload []byte, signature string) (Event, error) {
	if err := webhook.ValidatePayloadWithTolerance(payload, signature, p.webhookSecret, p.tolerance); err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}

	var evt stripe.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}
	if evt.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, evt.ID)
	}

	meta := Meta{
		ID:        evt.ID,
		Type:      string(evt.Type),
		CreatedAt: time.Unix(evt.Created, 0).UTC(),
	}

	switch evt.Type {
	case "checkout.session.completed":
		var s stripeCheckoutSession
		if err := decodeStripeObject(evt.Data.Raw, &s); err != nil {
			return nil, err
		}
		return CheckoutCompleted{
			Meta:            meta,
			UserID:          s.Metadata["userId"],
			Plan:            s.Metadata["plan"],
			CustomerID:      string(s.Customer),
			SubscriptionID:  string(s.Subscription),
			PaymentIntentID: string(s.PaymentIntent),
			AmountTotal:     s.AmountTotal,
			Currency:        s.Currency,
			PeriodStart:     unixPtr(s.CurrentPeriodStart),
			PeriodEnd:       unixPtr(s.CurrentPeriodEnd),
		}, nil

	case "customer.subscription.updated":
		var s stripeSubscription
		if err := decodeStripeObject(evt.Data.Raw, &s); err != nil {
			return nil, err
		}
		start, end := s.period()
		return SubscriptionUpdated{
			Meta:           meta,
			CustomerID:     string(s.Customer),
			SubscriptionID: s.ID,
			Status:         s.Status,
			PeriodStart:    start,
			PeriodEnd:      end,
		}, nil

	case "customer.subscription.deleted":
		var s stripeSubscription
		if err := decodeStripeObject(evt.Data.Raw, &s); err != nil {
			return nil, err
		}
		return SubscriptionDeleted{
			Meta:           meta,
			CustomerID:     string(s.Customer),
			SubscriptionID: s.ID,
		}, nil

	case "invoice.payment_succeeded":
		var in stripeInvoice
		if err := decodeStripeObject(evt.Data.Raw, &in); err != nil {
			return nil, err
		}
		return InvoicePaid{
			Meta:            meta,
			SubscriptionID:  in.subscriptionID(),
			PaymentIntentID: string(in.PaymentIntent),
			AmountPaid:      in.AmountPaid,
			Currency:        in.Currency,
		}, nil

	case "invoice.payment_failed":
		var in stripeInvoice
		if err := decodeStripeObject(evt.Data.Raw, &in); err != nil {
			return nil, err
		}
		return InvoicePaymentFailed{
			Meta:            meta,
			SubscriptionID:  in.subscriptionID(),
			PaymentIntentID: string(in.PaymentIntent),
			AmountDue:       in.AmountDue,
			Currency:        in.Currency,
		}, nil

	default:
		return UnknownEvent{Meta: meta}, nil
	}
}

func decodeStripeObject(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Join(ErrMalformedEvent, err)
	}
	return nil
}

// stripeRef accepts both a bare id and an expanded object carrying an id.
type stripeRef string

func (r *stripeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*r = stripeRef(obj.ID)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = stripeRef(s)
	return nil
}

type stripeCheckoutSession struct {
	Customer           stripeRef         `json:"customer"`
	Subscription       stripeRef         `json:"subscription"`
	PaymentIntent      stripeRef         `json:"payment_intent"`
	AmountTotal        int64             `json:"amount_total"`
	Currency           string            `json:"currency"`
	Metadata           map[string]string `json:"metadata"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
}

type stripeSubscription struct {
	ID                 string    `json:"id"`
	Customer           stripeRef `json:"customer"`
	Status             string    `json:"status"`
	CurrentPeriodStart int64     `json:"current_period_start"`
	CurrentPeriodEnd   int64     `json:"current_period_end"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// period reads the top-level fields and falls back to the first item, where
// newer API versions report the billing period.
func (s stripeSubscription) period() (time.Time, time.Time) {
	start, end := s.CurrentPeriodStart, s.CurrentPeriodEnd
	if (start == 0 || end == 0) && len(s.Items.Data) > 0 {
		start, end = s.Items.Data[0].CurrentPeriodStart, s.Items.Data[0].CurrentPeriodEnd
	}
	return unixTime(start), unixTime(end)
}

type stripeInvoice struct {
	Subscription  stripeRef `json:"subscription"`
	PaymentIntent stripeRef `json:"payment_intent"`
	AmountPaid    int64     `json:"amount_paid"`
	AmountDue     int64     `json:"amount_due"`
	Currency      string    `json:"currency"`
	Parent        *struct {
		SubscriptionDetails *struct {
			Subscription stripeRef `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func (in stripeInvoice) subscriptionID() string {
	if in.Subscription != "" {
		return string(in.Subscription)
	}
	if in.Parent != nil && in.Parent.SubscriptionDetails != nil {
		return string(in.Parent.SubscriptionDetails.Subscription)
	}
	return ""
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// stripeClients calls the live API with an explicit key instead of the package-global stripe.Key.
type stripeClients struct {
	customers *customer.Client
	checkout  *checkoutsession.Client
	portal    *portalsession.Client
}

func newStripeClients(key string) *stripeClients {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &stripeClients{
		customers: &customer.Client{B: backend, Key: key},
		checkout:  &checkoutsession.Client{B: backend, Key: key},
		portal:    &portalsession.Client{B: backend, Key: key},
	}
}

func (c *stripeClients) NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	return c.customers.New(params)
}

func (c *stripeClients) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return c.checkout.New(params)
}

func (c *stripeClients) NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return c.portal.New(params)
}
