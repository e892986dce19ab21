package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/admin"
	"github.com/dmitrymomot/quotekit/internal/analytics"
	"github.com/dmitrymomot/quotekit/internal/auth"
	"github.com/dmitrymomot/quotekit/internal/billing"
	"github.com/dmitrymomot/quotekit/internal/export"
	"github.com/dmitrymomot/quotekit/internal/metrics"
	"github.com/dmitrymomot/quotekit/internal/notify"
	"github.com/dmitrymomot/quotekit/internal/plan"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/internal/ratelimit"
	"github.com/dmitrymomot/quotekit/internal/referral"
	"github.com/dmitrymomot/quotekit/pkg/httpserver"
	"github.com/dmitrymomot/quotekit/pkg/logger"
)

type Quotes interface {
	Create(ctx context.Context, userID uuid.UUID, in quote.CreateInput) (*quote.Quote, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*quote.Quote, error)
	List(ctx context.Context, userID uuid.UUID) ([]*quote.Quote, error)
	UpdateLineItems(ctx context.Context, userID, id uuid.UUID, in quote.UpdateItemsInput) (*quote.Quote, error)
	Transition(ctx context.Context, userID, id uuid.UUID, to quote.Status) (*quote.Quote, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	IssueShareToken(ctx context.Context, userID, id uuid.UUID) (*quote.Quote, error)
	GetByShareToken(ctx context.Context, token string) (*quote.Quote, error)
}

type Accounts interface {
	Sync(ctx context.Context, id uuid.UUID, email, name string, role account.Role) (*account.User, error)
	Profile(ctx context.Context, userID uuid.UUID) (*account.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in account.ProfileInput) (*account.Profile, error)
}

type Sharer interface {
	ShareByEmail(ctx context.Context, userID, quoteID uuid.UUID) (*notify.SharedQuote, error)
}

type Exporter interface {
	PDF(ctx context.Context, userID, quoteID uuid.UUID) (*export.File, error)
	PublicQR(ctx context.Context, token string) ([]byte, error)
}

type Plans interface {
	Eligibility(ctx context.Context, userID uuid.UUID) (plan.Eligibility, error)
}

type Billing interface {
	SignatureHeader() string
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Checkout(ctx context.Context, c billing.Customer, plan string) (*billing.CheckoutSession, error)
	Portal(ctx context.Context, userID uuid.UUID) (*billing.PortalSession, error)
	Subscription(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error)
	Payments(ctx context.Context, userID uuid.UUID) ([]*billing.Payment, error)
}

type Referrals interface {
	List(ctx context.Context, userID uuid.UUID) (*referral.Overview, error)
	Create(ctx context.Context, userID uuid.UUID, referrerID string) (*referral.Referral, error)
}

type Analytics interface {
	Report(ctx context.Context, userID uuid.UUID) (analytics.Report, error)
}

type Admin interface {
	Users(ctx context.Context) ([]*admin.UserSummary, error)
	Quotes(ctx context.Context) ([]*admin.QuoteSummary, error)
	ExpireQuote(ctx context.Context, id uuid.UUID) (*quote.Quote, error)
}

// Deps are the services behind the API. All of them are required.
type Deps struct {
	Issuer    *auth.Issuer
	Accounts  Accounts
	Quotes    Quotes
	Sharer    Sharer
	Exports   Exporter
	Plans     Plans
	Billing   Billing
	Referrals Referrals
	Analytics Analytics
	Admin     Admin
}

// API holds the HTTP handlers.
type API struct {
	Deps
	log            *slog.Logger
	metrics        *metrics.Metrics
	publicLimiter  *ratelimit.Limiter
	clientKey      ratelimit.KeyFunc
	requestTimeout time.Duration
	baseURL        string
	checks         []httpserver.Check
}

// Option configures optional API settings.
type Option func(*API)

func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *API) { a.metrics = m }
}

// WithPublicLimiter rate limits the unauthenticated quote routes per client IP.
func WithPublicLimiter(l *ratelimit.Limiter) Option {
	return func(a *API) { a.publicLimiter = l }
}

// WithClientKey sets how public requests are attributed to a client.
// The default keys on the socket peer address.
func WithClientKey(fn ratelimit.KeyFunc) Option {
	return func(a *API) {
		if fn != nil {
			a.clientKey = fn
		}
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.requestTimeout = d
		}
	}
}

// WithBaseURL sets the origin public share links are built from.
func WithBaseURL(u string) Option {
	return func(a *API) { a.baseURL = u }
}

// WithReadinessChecks adds dependency probes to /health/ready.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(a *API) { a.checks = append(a.checks, checks...) }
}

// New panics when a dependency is missing.
func New(deps Deps, opts ...Option) *API {
	switch {
	case deps.Issuer == nil:
		panic("httpapi: Issuer is required")
	case deps.Accounts == nil, deps.Quotes == nil, deps.Sharer == nil, deps.Exports == nil:
		panic("httpapi: Accounts, Quotes, Sharer and Exports are required")
	case deps.Plans == nil, deps.Billing == nil, deps.Referrals == nil:
		panic("httpapi: Plans, Billing and Referrals are required")
	case deps.Analytics == nil, deps.Admin == nil:
		panic("httpapi: Analytics and Admin are required")
	}

	a := &API{
		Deps:           deps,
		log:            logger.Discard(),
		clientKey:      ratelimit.ClientIP,
		requestTimeout: 30 * time.Second,
		baseURL:        "http://localhost:8080",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler builds the router.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(a.recoverer)
	if a.metrics != nil {
		r.Use(a.metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) { a.fail(w, r, ErrNotFound) })
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) { a.fail(w, r, ErrMethodNotAllowed) })

	r.Get("/health/live", httpserver.Liveness())
	r.Get("/health/ready", httpserver.Readiness(a.log, 2*time.Second, a.checks...))
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}

	// Share links issued by quote.PublicURL resolve here.
	r.Route("/quote/{token}", func(r chi.Router) {
		r.Use(middleware.Timeout(a.requestTimeout))
		a.publicRoutes(r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(a.requestTimeout))

		r.Post("/billing/webhook", a.billingWebhook)

		r.Route("/public/quotes/{token}", a.publicRoutes)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(a.Issuer, a.fail))
			r.Use(a.syncAccount)

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", a.listQuotes)
				r.Post("/", a.createQuote)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", a.getQuote)
					r.Patch("/", a.transitionQuote)
					r.Delete("/", a.deleteQuote)
					r.Put("/items", a.updateQuoteItems)
					r.Post("/share", a.shareQuote)
					r.Post("/share/email", a.shareQuoteByEmail)
					r.Get("/export", a.exportQuote)
				})
			})

			r.Get("/plan", a.planEligibility)

			r.Route("/billing", func(r chi.Router) {
				r.Get("/subscription", a.subscription)
				r.Get("/payments", a.payments)
				r.Post("/checkout", a.checkout)
				r.Post("/portal", a.portal)
			})

			r.Get("/referrals", a.listReferrals)
			r.Post("/referrals", a.createReferral)

			r.Get("/profile", a.getProfile)
			r.Put("/profile", a.updateProfile)

			r.Get("/analytics", a.analytics)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin(a.fail))
				r.Get("/users", a.adminUsers)
				r.Get("/quotes", a.adminQuotes)
				r.Post("/quotes/{id}/expire", a.adminExpireQuote)
			})
		})
	})

	return r
}

// publicRoutes serves a shared quote by token. Both mounts share one limit per client.
func (a *API) publicRoutes(r chi.Router) {
	if a.publicLimiter != nil {
		denied := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { a.fail(w, r, ErrTooManyRequests) })
		r.Use(ratelimit.Middleware(a.publicLimiter, ratelimit.WithPrefix("public", a.clientKey), denied, a.log))
	}
	r.Get("/", a.publicQuote)
	r.Get("/qr", a.publicQR)
}
