package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/auth"
	"github.com/dmitrymomot/quotekit/internal/config"
	"github.com/dmitrymomot/quotekit/internal/plan"
	"github.com/dmitrymomot/quotekit/internal/ratelimit"
	"github.com/dmitrymomot/quotekit/pkg/logger"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := Version, BuildTime, GitCommit
	t.Cleanup(func() {
		Version, BuildTime, GitCommit = oldVersion, oldBuildTime, oldGitCommit
	})

	Version = "1.2.3"
	BuildTime = "2026-01-01"
	GitCommit = "abcdef"

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "QuoteKit 1.2.3")
	assert.Contains(t, out, "Built: 2026-01-01")
	assert.Contains(t, out, "Commit: abcdef")
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cmd-secret")
	t.Setenv("AUTH_TOKEN_TTL", "1h")

	t.Run("mints a verifiable admin token", func(t *testing.T) {
		id := uuid.New()
		out, err := execute(t, "token", "--user-id", id.String(), "--email", "ops@example.com", "--name", "Ops", "--role", "admin")
		require.NoError(t, err)

		issuer, err := auth.NewIssuer("cmd-secret", time.Hour)
		require.NoError(t, err)
		identity, err := issuer.Verify(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Equal(t, id, identity.UserID)
		assert.Equal(t, "ops@example.com", identity.Email)
		assert.Equal(t, account.RoleAdmin, identity.Role)
	})

	t.Run("rejects an invalid user id", func(t *testing.T) {
		_, err := execute(t, "token", "--user-id", "nope", "--email", "a@example.com")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --user-id")
	})
}

func TestTokenCmd_MissingSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := execute(t, "token", "--user-id", uuid.NewString(), "--email", "a@example.com")
	require.ErrorIs(t, err, auth.ErrMissingSecret)
}

func TestBuild_MemoryStore(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		App:       config.App{Env: "test", Name: "quotekit", BaseURL: "http://quotes.test", StoreDriver: "memory"},
		HTTP:      config.HTTP{RequestTimeout: 5 * time.Second},
		Auth:      config.Auth{JWTSecret: "build-secret", TokenTTL: time.Hour},
		Billing:   config.Billing{Provider: "stripe", WebhookTimeout: time.Second, CallTimeout: time.Second, BreakerFailures: 3, BreakerOpenPeriod: time.Second},
		Stripe:    config.Stripe{SecretKey: "sk_test_x", WebhookSecret: "whsec_x", MonthlyPriceID: "price_m", YearlyPriceID: "price_y"},
		RateLimit: config.RateLimit{PublicRequests: 10, PublicWindow: time.Minute},
	}

	a, err := build(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(a.close)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	issuer, err := auth.NewIssuer("build-secret", time.Hour)
	require.NoError(t, err)
	token, err := issuer.Mint(auth.Identity{UserID: uuid.New(), Email: "me@example.com", Role: account.RoleUser})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/plan", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Limit     int `json:"limit"`
			Remaining int `json:"remaining"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, plan.FreeQuoteLimit, body.Data.Limit)
	assert.Equal(t, plan.FreeQuoteLimit, body.Data.Remaining)
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	base := config.Config{
		App:     config.App{Env: "test", StoreDriver: "memory"},
		Auth:    config.Auth{JWTSecret: "s"},
		Billing: config.Billing{Provider: "stripe"},
		Stripe:  config.Stripe{SecretKey: "sk", WebhookSecret: "wh"},
	}

	t.Run("unknown store", func(t *testing.T) {
		t.Parallel()
		cfg := base
		cfg.App.StoreDriver = "sqlite"
		_, err := build(context.Background(), cfg, logger.Discard())
		require.Error(t, err)
	})

	t.Run("unknown billing provider", func(t *testing.T) {
		t.Parallel()
		cfg := base
		cfg.Billing.Provider = "braintree"
		_, err := build(context.Background(), cfg, logger.Discard())
		require.Error(t, err)
	})

	t.Run("invalid trusted proxy", func(t *testing.T) {
		t.Parallel()
		cfg := base
		cfg.RateLimit.TrustedProxies = []string{"not-an-ip"}
		_, err := build(context.Background(), cfg, logger.Discard())
		require.ErrorIs(t, err, ratelimit.ErrInvalidTrustedProxy)
	})

	t.Run("production requires postmark", func(t *testing.T) {
		t.Parallel()
		cfg := base
		cfg.App.Env = "production"
		_, err := build(context.Background(), cfg, logger.Discard())
		require.ErrorIs(t, err, errMissingMailToken)
	})
}
