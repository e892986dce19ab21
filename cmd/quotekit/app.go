package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/admin"
	"github.com/dmitrymomot/quotekit/internal/analytics"
	"github.com/dmitrymomot/quotekit/internal/auth"
	"github.com/dmitrymomot/quotekit/internal/billing"
	"github.com/dmitrymomot/quotekit/internal/config"
	"github.com/dmitrymomot/quotekit/internal/export"
	"github.com/dmitrymomot/quotekit/internal/httpapi"
	"github.com/dmitrymomot/quotekit/internal/metrics"
	"github.com/dmitrymomot/quotekit/internal/notify"
	"github.com/dmitrymomot/quotekit/internal/plan"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/internal/ratelimit"
	"github.com/dmitrymomot/quotekit/internal/referral"
	"github.com/dmitrymomot/quotekit/internal/store/memory"
	"github.com/dmitrymomot/quotekit/internal/store/postgres"
	"github.com/dmitrymomot/quotekit/pkg/httpserver"
	"github.com/dmitrymomot/quotekit/pkg/logger"
)

var errMissingMailToken = errors.New("POSTMARK_SERVER_TOKEN is required in production")

// dataStore is everything the services persist. Both drivers implement it.
type dataStore interface {
	quote.Store
	account.Store
	billing.Store
	plan.Store
	referral.Store
	admin.Store
}

// app is the assembled HTTP application with the resources it owns.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newLogger picks format and level from APP_ENV; LOG_LEVEL overrides the level.
func newLogger(cfg config.Config) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(cfg.App.Env, cfg.App.Name),
		logger.WithLevelName(cfg.App.LogLevel),
		logger.WithContextExtractors(requestIDExtractor),
	)
}

func requestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id := middleware.GetReqID(ctx)
	if id == "" {
		return slog.Attr{}, false
	}
	return logger.RequestID(id), true
}

// build wires every service from cfg. On error, resources opened so far are released.
func build(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	m := metrics.New()
	var checks []httpserver.Check

	store, err := openStore(ctx, cfg, log, a, &checks)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	provider, err := newBillingProvider(cfg)
	if err != nil {
		return nil, err
	}
	provider = billing.WithBreaker(provider, billing.BreakerConfig{
		FailureThreshold: cfg.Billing.BreakerFailures,
		OpenPeriod:       cfg.Billing.BreakerOpenPeriod,
		CallTimeout:      cfg.Billing.CallTimeout,
		OnStateChange:    m.BreakerStateChange,
	})

	gate := plan.NewGate(store)
	quotes := quote.NewService(store, gate,
		quote.WithLogger(log.With(logger.Component("quote"))),
		quote.WithCreatedHook(m.QuoteCreated),
	)
	accounts := account.NewService(store)

	exportOpts := []export.Option{
		export.WithLogger(log.With(logger.Component("export"))),
		export.WithBaseURL(cfg.App.BaseURL),
	}
	if cfg.Storage.Bucket != "" {
		archive, err := export.NewS3Archive(ctx, export.S3Config{
			Bucket:         cfg.Storage.Bucket,
			Region:         cfg.Storage.Region,
			AccessKeyID:    cfg.Storage.AccessKeyID,
			SecretKey:      cfg.Storage.SecretKey,
			Endpoint:       cfg.Storage.Endpoint,
			ForcePathStyle: cfg.Storage.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up export archive: %w", err)
		}
		exportOpts = append(exportOpts, export.WithArchiver(archive))
	}

	sender, err := newSender(cfg, log)
	if err != nil {
		return nil, err
	}

	trusted, err := ratelimit.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return nil, err
	}

	apiOpts := []httpapi.Option{
		httpapi.WithLogger(log.With(logger.Component("http"))),
		httpapi.WithMetrics(m),
		httpapi.WithRequestTimeout(cfg.HTTP.RequestTimeout),
		httpapi.WithBaseURL(cfg.App.BaseURL),
		httpapi.WithClientKey(ratelimit.TrustedClientIP(trusted)),
	}
	if cfg.Redis.ConnectionURL != "" {
		client, err := ratelimit.Connect(ctx, ratelimit.ConnectConfig{
			URL:            cfg.Redis.ConnectionURL,
			RetryAttempts:  cfg.Redis.RetryAttempts,
			RetryInterval:  cfg.Redis.RetryInterval,
			ConnectTimeout: cfg.Redis.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		checks = append(checks, httpserver.Check{Name: "redis", Fn: ratelimit.Healthcheck(client)})

		limiter, err := ratelimit.NewLimiter(ratelimit.NewRedisStore(client, cfg.App.Name), ratelimit.Config{
			Requests: cfg.RateLimit.PublicRequests,
			Window:   cfg.RateLimit.PublicWindow,
		})
		if err != nil {
			return nil, err
		}
		apiOpts = append(apiOpts, httpapi.WithPublicLimiter(limiter))
	} else {
		log.WarnContext(ctx, "REDIS_URL is not set, public quote routes are not rate limited")
	}
	apiOpts = append(apiOpts, httpapi.WithReadinessChecks(checks...))

	api := httpapi.New(httpapi.Deps{
		Issuer:   issuer,
		Accounts: accounts,
		Quotes:   quotes,
		Sharer:   notify.NewSharer(quotes, accounts, sender, cfg.App.BaseURL, log.With(logger.Component("notify"))),
		Exports:  export.NewService(quotes, accounts, exportOpts...),
		Plans:    gate,
		Billing: billing.NewService(provider, store,
			billing.WithLogger(log.With(logger.Component("billing"))),
			billing.WithBaseURL(cfg.App.BaseURL),
			billing.WithWebhookTimeout(cfg.Billing.WebhookTimeout),
			billing.WithEventObserver(m.WebhookEvent),
		),
		Referrals: referral.NewService(store, cfg.App.BaseURL),
		Analytics: analytics.NewService(store),
		Admin:     admin.NewService(store, quotes),
	}, apiOpts...)

	a.handler = api.Handler()
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger, a *app, checks *[]httpserver.Check) (dataStore, error) {
	switch cfg.App.StoreDriver {
	case "memory":
		log.WarnContext(ctx, "using in-memory store, data is lost on restart")
		return memory.New(), nil
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config(cfg.Postgres))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool, cfg.Postgres.MigrationsTable, log.With(logger.Component("migrate"))); err != nil {
			return nil, err
		}
		*checks = append(*checks, httpserver.Check{Name: "postgres", Fn: postgres.Healthcheck(pool)})
		return postgres.New(pool), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.App.StoreDriver)
	}
}

func newBillingProvider(cfg config.Config) (billing.Provider, error) {
	switch cfg.Billing.Provider {
	case "stripe":
		p, err := billing.NewStripeProvider(billing.StripeConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			Prices:        billing.PriceIDs{Monthly: cfg.Stripe.MonthlyPriceID, Yearly: cfg.Stripe.YearlyPriceID},
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "paddle":
		p, err := billing.NewPaddleProvider(billing.PaddleConfig{
			APIKey:        cfg.Paddle.APIKey,
			WebhookSecret: cfg.Paddle.WebhookSecret,
			Environment:   cfg.Paddle.Environment,
			Prices:        billing.PriceIDs{Monthly: cfg.Paddle.MonthlyPriceID, Yearly: cfg.Paddle.YearlyPriceID},
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown billing provider %q", cfg.Billing.Provider)
	}
}

// newSender uses Postmark when a server token is configured and logs messages otherwise.
func newSender(cfg config.Config, log *slog.Logger) (notify.Sender, error) {
	if cfg.Postmark.ServerToken == "" {
		if cfg.IsProduction() {
			return nil, errMissingMailToken
		}
		return notify.NewLogSender(log.With(logger.Component("mail"))), nil
	}
	s, err := notify.NewPostmarkSender(notify.PostmarkConfig{
		ServerToken:  cfg.Postmark.ServerToken,
		AccountToken: cfg.Postmark.AccountToken,
		SenderEmail:  cfg.Postmark.SenderEmail,
		SupportEmail: cfg.Postmark.SupportEmail,
	}, nil)
	if err != nil {
		return nil, err
	}
	return s, nil
}
