package billing

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSignatureInvalid     = errors.New("webhook signature verification failed")
	ErrMalformedEvent       = errors.New("malformed billing event")
	ErrInvalidPlan          = errors.New("invalid plan: must be monthly or yearly")
	ErrDependencyFailure    = errors.New("billing provider unavailable")
	ErrNoCheckoutURL        = errors.New("no checkout URL returned from provider")
	ErrNoPortalURL          = errors.New("no portal URL returned from provider")
	ErrMissingAPIKey        = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	ErrMissingPriceID       = errors.New("price ID is not configured for plan")
	ErrInvalidEnvironment   = errors.New("invalid billing provider environment")
)
