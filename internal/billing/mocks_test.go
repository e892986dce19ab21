package billing_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/quotekit/internal/billing"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string            { return "mock" }
func (m *mockProvider) SignatureHeader() string { return "X-Signature" }

func (m *mockProvider) ParseEvent(ctx context.Context, payload []byte, signature string) (billing.Event, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(billing.Event), args.Error(1)
}

func (m *mockProvider) CreateCustomer(ctx context.Context, req billing.CustomerRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

func (m *mockProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*billing.PortalSession, error) {
	args := m.Called(ctx, customerID, returnURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PortalSession), args.Error(1)
}
