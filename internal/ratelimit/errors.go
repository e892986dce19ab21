package ratelimit

import "errors"

var (
	ErrInvalidConfig       = errors.New("invalid rate limit configuration")
	ErrInvalidRedisURL     = errors.New("failed to parse redis connection string")
	ErrRedisNotReady       = errors.New("redis did not become ready within the given time period")
	ErrHealthcheckFailed   = errors.New("redis healthcheck failed")
	ErrInvalidTrustedProxy = errors.New("invalid trusted proxy address")
)
