package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle provider.
type PaddleConfig struct {
	APIKey        string
	WebhookSecret string
	Environment   string // production | sandbox
	Prices        PriceIDs
}

// PaddleProvider implements Provider for Paddle Billing.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	prices   PriceIDs
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		prices:   cfg.Prices,
	}, nil
}

func (p *PaddleProvider) Name() string            { return "paddle" }
func (p *PaddleProvider) SignatureHeader() string { return "Paddle-Signature" }

// CreateCustomer creates a Paddle customer (ctm_…) tagged with the user id.
func (p *PaddleProvider) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	creq := &paddle.CreateCustomerRequest{
		Email:      req.Email,
		CustomData: paddle.CustomData{"user_id": req.UserID.String()},
	}
	if req.Name != "" {
		creq.Name = paddle.PtrTo(req.Name)
	}

	c, err := p.client.CustomersClient.CreateCustomer(ctx, creq)
	if err != nil {
		return "", fmt.Errorf("failed to create paddle customer: %w", err)
	}
	return c.ID, nil
}

// CreateCheckoutSession creates a transaction whose checkout URL hosts the payment.
func (p *PaddleProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	priceID, err := p.prices.For(req.Plan)
	if err != nil {
		return nil, err
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	treq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"user_id": req.UserID.String(),
			"plan":    req.Plan.Key(),
		},
	}
	if req.CustomerID != "" {
		treq.CustomerID = paddle.PtrTo(req.CustomerID)
	}
	if req.SuccessURL != "" {
		treq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	txn, err := p.client.TransactionsClient.CreateTransaction(ctx, treq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}
	if txn.Checkout == nil || txn.Checkout.URL == nil || *txn.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}
	return &CheckoutSession{ID: txn.ID, URL: *txn.Checkout.URL}, nil
}

// CreatePortalSession returns the general overview URL of the customer portal.
func (p *PaddleProvider) CreatePortalSession(ctx context.Context, customerID, _ string) (*PortalSession, error) {
	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID: customerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle customer portal session: %w", err)
	}
	if session.URLs.General.Overview == "" {
		return nil, ErrNoPortalURL
	}
	return &PortalSession{URL: session.URLs.General.Overview}, nil
}

// ParseEvent verifies the Paddle-Signature header and decodes the notification.
func (p *PaddleProvider) ParseEvent(ctx context.Context, payload []byte, signature string) (Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}
	if !valid {
		return nil, ErrSignatureInvalid
	}

	return DecodePaddleEvent(payload)
}

// DecodePaddleEvent maps an authenticated Paddle notification onto an Event.
func DecodePaddleEvent(payload []byte) (Event, error) {
	var env struct {
		EventID    string          `json:"event_id"`
		EventType  string          `json:"event_type"`
		OccurredAt time.Time       `json:"occurred_at"`
		Data       json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	meta := Meta{ID: env.EventID, Type: env.EventType, CreatedAt: env.OccurredAt.UTC()}

	switch env.EventType {
	case "transaction.completed", "transaction.payment_failed":
		var t paddleTransaction
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		amount, err := t.amount()
		if err != nil {
			return nil, err
		}

		if env.EventType == "transaction.payment_failed" {
			return InvoicePaymentFailed{
				Meta:            meta,
				SubscriptionID:  t.SubscriptionID,
				PaymentIntentID: t.ID,
				AmountDue:       amount,
				Currency:        strings.ToLower(t.CurrencyCode),
			}, nil
		}

		if t.Origin == "web" || t.Origin == "api" {
			ev := CheckoutCompleted{
				Meta:            meta,
				UserID:          customString(t.CustomData, "user_id"),
				Plan:            customString(t.CustomData, "plan"),
				CustomerID:      t.CustomerID,
				SubscriptionID:  t.SubscriptionID,
				PaymentIntentID: t.ID,
				AmountTotal:     amount,
				Currency:        strings.ToLower(t.CurrencyCode),
			}
			if t.BillingPeriod != nil {
				ev.PeriodStart = &t.BillingPeriod.StartsAt
				ev.PeriodEnd = &t.BillingPeriod.EndsAt
			}
			return ev, nil
		}

		return InvoicePaid{
			Meta:            meta,
			SubscriptionID:  t.SubscriptionID,
			PaymentIntentID: t.ID,
			AmountPaid:      amount,
			Currency:        strings.ToLower(t.CurrencyCode),
		}, nil

	case "subscription.updated":
		var s paddleSubscription
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		ev := SubscriptionUpdated{
			Meta:           meta,
			CustomerID:     s.CustomerID,
			SubscriptionID: s.ID,
			Status:         s.Status,
		}
		if s.CurrentBillingPeriod != nil {
			ev.PeriodStart = s.CurrentBillingPeriod.StartsAt.UTC()
			ev.PeriodEnd = s.CurrentBillingPeriod.EndsAt.UTC()
		}
		return ev, nil

	case "subscription.canceled":
		var s paddleSubscription
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		return SubscriptionDeleted{Meta: meta, CustomerID: s.CustomerID, SubscriptionID: s.ID}, nil

	default:
		return UnknownEvent{Meta: meta}, nil
	}
}

type paddlePeriod struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type paddleTransaction struct {
	ID             string         `json:"id"`
	Origin         string         `json:"origin"`
	CustomerID     string         `json:"customer_id"`
	SubscriptionID string         `json:"subscription_id"`
	CurrencyCode   string         `json:"currency_code"`
	CustomData     map[string]any `json:"custom_data"`
	BillingPeriod  *paddlePeriod  `json:"billing_period"`
	Details        struct {
		Totals struct {
			GrandTotal string `json:"grand_total"`
		} `json:"totals"`
	} `json:"details"`
}

// amount parses the grand total, which Paddle reports as a string in minor units.
func (t paddleTransaction) amount() (int64, error) {
	if t.Details.Totals.GrandTotal == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(t.Details.Totals.GrandTotal, 10, 64)
	if err != nil {
		return 0, errors.Join(ErrMalformedEvent, fmt.Errorf("invalid grand_total %q: %w", t.Details.Totals.GrandTotal, err))
	}
	return v, nil
}

type paddleSubscription struct {
	ID                   string        `json:"id"`
	Status               string        `json:"status"`
	CustomerID           string        `json:"customer_id"`
	CurrentBillingPeriod *paddlePeriod `json:"current_billing_period"`
}

func customString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
