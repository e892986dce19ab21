package config

import "errors"

var (
	ErrParsingConfig     = errors.New("failed to parse environment variables into config")
	ErrNilPointer        = errors.New("nil pointer provided to config loader")
	ErrMissingJWTSecret  = errors.New("AUTH_JWT_SECRET is required")
	ErrMissingDatabase   = errors.New("PG_CONN_URL is required when STORE_DRIVER=postgres")
	ErrUnknownStore      = errors.New("unknown STORE_DRIVER")
	ErrUnknownBilling    = errors.New("unknown BILLING_PROVIDER")
	ErrMissingBillingKey = errors.New("billing provider credentials are required")
)
