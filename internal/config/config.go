// Package config describes every environment setting the service reads.
package config

import "time"

// Config aggregates all sub-configurations. Load it once at startup.
type Config struct {
	App       App
	HTTP      HTTP
	Postgres  Postgres
	Redis     Redis
	Auth      Auth
	Billing   Billing
	Stripe    Stripe
	Paddle    Paddle
	Storage   Storage
	Postmark  Postmark
	RateLimit RateLimit
}

type App struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	Name        string `env:"APP_NAME" envDefault:"quotekit"`
	BaseURL     string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"` // postgres | memory
}

type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`
}

type Postgres struct {
	ConnectionString  string        `env:"PG_CONN_URL"`
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
	RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
	MigrationsTable   string        `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}

type Redis struct {
	ConnectionURL  string        `env:"REDIS_URL"` // empty disables rate limiting
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

type Auth struct {
	JWTSecret string        `env:"AUTH_JWT_SECRET"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
}

type Billing struct {
	Provider          string        `env:"BILLING_PROVIDER" envDefault:"stripe"` // stripe | paddle
	WebhookTimeout    time.Duration `env:"BILLING_WEBHOOK_TIMEOUT" envDefault:"10s"`
	CallTimeout       time.Duration `env:"BILLING_CALL_TIMEOUT" envDefault:"10s"`
	BreakerFailures   uint32        `env:"BILLING_BREAKER_FAILURES" envDefault:"5"`
	BreakerOpenPeriod time.Duration `env:"BILLING_BREAKER_OPEN_PERIOD" envDefault:"30s"`
}

type Stripe struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET"`
	MonthlyPriceID string `env:"STRIPE_MONTHLY_PRICE_ID"`
	YearlyPriceID  string `env:"STRIPE_YEARLY_PRICE_ID"`
}

type Paddle struct {
	APIKey         string `env:"PADDLE_API_KEY"`
	WebhookSecret  string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment    string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	MonthlyPriceID string `env:"PADDLE_MONTHLY_PRICE_ID"`
	YearlyPriceID  string `env:"PADDLE_YEARLY_PRICE_ID"`
}

type Storage struct {
	Bucket         string `env:"S3_BUCKET"` // empty disables PDF archiving
	Region         string `env:"S3_REGION" envDefault:"eu-west-2"`
	AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"S3_SECRET_KEY"`
	Endpoint       string `env:"S3_ENDPOINT"`
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
}

type Postmark struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"` // empty falls back to a logging sender
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"SENDER_EMAIL" envDefault:"quotes@localhost"`
	SupportEmail string `env:"SUPPORT_EMAIL" envDefault:"support@localhost"`
}

type RateLimit struct {
	PublicRequests int           `env:"RATE_LIMIT_PUBLIC_REQUESTS" envDefault:"60"`
	PublicWindow   time.Duration `env:"RATE_LIMIT_PUBLIC_WINDOW" envDefault:"1m"`
	// TrustedProxies lists CIDRs or addresses whose forwarding headers are honoured.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// IsProduction reports whether the app runs in production.
func (c Config) IsProduction() bool {
	return c.App.Env == "production" || c.App.Env == "prod"
}
