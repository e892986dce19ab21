package billing

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker around outbound provider calls.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenPeriod is how long the breaker stays open before probing again.
	OpenPeriod time.Duration
	// CallTimeout bounds each outbound call.
	CallTimeout time.Duration
	// OnStateChange is notified on every breaker transition.
	OnStateChange func(name, from, to string)
}

// DefaultBreakerConfig returns the settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenPeriod:       30 * time.Second,
		CallTimeout:      10 * time.Second,
	}
}

// breakerProvider decorates a Provider. Webhook parsing is local work and is not guarded.
type breakerProvider struct {
	Provider
	cb      *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

// WithBreaker wraps the outbound calls of p in a circuit breaker and a per-call
// timeout. Every failure, including an open breaker, is reported as ErrDependencyFailure.
func WithBreaker(p Provider, cfg BreakerConfig) Provider {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenPeriod <= 0 {
		cfg.OpenPeriod = def.OpenPeriod
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}

	settings := gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 1,
		Timeout:     cfg.OpenPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			cfg.OnStateChange(name, from.String(), to.String())
		}
	}

	return &breakerProvider{
		Provider: p,
		cb:       gobreaker.NewCircuitBreaker[any](settings),
		timeout:  cfg.CallTimeout,
	}
}

func (b *breakerProvider) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	res, err := b.call(ctx, func(ctx context.Context) (any, error) {
		return b.Provider.CreateCustomer(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (b *breakerProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	res, err := b.call(ctx, func(ctx context.Context) (any, error) {
		return b.Provider.CreateCheckoutSession(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*CheckoutSession), nil
}

func (b *breakerProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	res, err := b.call(ctx, func(ctx context.Context) (any, error) {
		return b.Provider.CreatePortalSession(ctx, customerID, returnURL)
	})
	if err != nil {
		return nil, err
	}
	return res.(*PortalSession), nil
}

func (b *breakerProvider) call(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Join(ErrDependencyFailure, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Join(ErrDependencyFailure, ctxErr, err)
		}
		return nil, errors.Join(ErrDependencyFailure, err)
	}
	return res, nil
}
