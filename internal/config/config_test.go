package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("BILLING_PROVIDER", "stripe")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
}

func TestParse_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Billing.WebhookTimeout)
	assert.Equal(t, uint32(5), cfg.Billing.BreakerFailures)
	assert.Equal(t, 60, cfg.RateLimit.PublicRequests)
	assert.False(t, cfg.IsProduction())
}

func TestParse_Validation(t *testing.T) {
	t.Run("missing jwt secret", func(t *testing.T) {
		setRequired(t)
		t.Setenv("AUTH_JWT_SECRET", "")
		_, err := config.Parse()
		assert.ErrorIs(t, err, config.ErrMissingJWTSecret)
	})

	t.Run("postgres requires connection string", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORE_DRIVER", "postgres")
		t.Setenv("PG_CONN_URL", "")
		_, err := config.Parse()
		assert.ErrorIs(t, err, config.ErrMissingDatabase)
	})

	t.Run("unknown store driver", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORE_DRIVER", "mongo")
		_, err := config.Parse()
		assert.ErrorIs(t, err, config.ErrUnknownStore)
	})

	t.Run("paddle requires credentials", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BILLING_PROVIDER", "paddle")
		t.Setenv("PADDLE_API_KEY", "")
		_, err := config.Parse()
		assert.ErrorIs(t, err, config.ErrMissingBillingKey)
	})

	t.Run("unknown billing provider", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BILLING_PROVIDER", "braintree")
		_, err := config.Parse()
		assert.ErrorIs(t, err, config.ErrUnknownBilling)
	})
}
