package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	loadOnce sync.Once
	cached   Config
	loadErr  error

	dotenvOnce sync.Once
)

// Load reads the .env file (if present) and parses the environment into Config.
// The result is cached: every call after the first returns the same value.
func Load() (Config, error) {
	loadOnce.Do(func() {
		cached, loadErr = Parse()
	})
	return cached, loadErr
}

// MustLoad works like Load but panics on failure.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}

// Parse reads the environment without caching and validates the result.
func Parse() (Config, error) {
	LoadDotEnv()

	var cfg Config
	if err := ParseInto(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env into the process environment once. A missing file is ignored.
func LoadDotEnv() {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// ParseInto fills any struct with env tags from the environment.
func ParseInto[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	switch c.App.StoreDriver {
	case "postgres":
		if c.Postgres.ConnectionString == "" {
			return ErrMissingDatabase
		}
	case "memory":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.App.StoreDriver)
	}

	switch c.Billing.Provider {
	case "stripe":
		if c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("%w: STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET", ErrMissingBillingKey)
		}
	case "paddle":
		if c.Paddle.APIKey == "" || c.Paddle.WebhookSecret == "" {
			return fmt.Errorf("%w: PADDLE_API_KEY and PADDLE_WEBHOOK_SECRET", ErrMissingBillingKey)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBilling, c.Billing.Provider)
	}

	return nil
}
