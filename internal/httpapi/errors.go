package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/quotekit/internal/auth"
	"github.com/dmitrymomot/quotekit/internal/billing"
	"github.com/dmitrymomot/quotekit/internal/plan"
	"github.com/dmitrymomot/quotekit/internal/quote"
	"github.com/dmitrymomot/quotekit/internal/referral"
	"github.com/dmitrymomot/quotekit/pkg/validator"
)

// HTTPError is a status code with its machine-readable key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

var (
	ErrBadRequest           = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrInvalidSignature     = HTTPError{Code: http.StatusBadRequest, Key: "invalid_signature"}
	ErrUnauthorized         = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden            = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrQuotaExceeded        = HTTPError{Code: http.StatusForbidden, Key: "quota_exceeded"}
	ErrNotFound             = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrMethodNotAllowed     = HTTPError{Code: http.StatusMethodNotAllowed, Key: "method_not_allowed"}
	ErrInvalidTransition    = HTTPError{Code: http.StatusConflict, Key: "invalid_transition"}
	ErrRequestTooLarge      = HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "request_entity_too_large"}
	ErrUnsupportedMediaType = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrValidation           = HTTPError{Code: http.StatusUnprocessableEntity, Key: "validation_error"}
	ErrTooManyRequests      = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternalServerError  = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
)

// Request decoding errors.
var (
	ErrInvalidJSON  = errors.New("invalid JSON body")
	ErrMissingBody  = errors.New("request body is empty")
	ErrInvalidID    = errors.New("invalid identifier")
	ErrMissingType  = errors.New("missing content type: expected application/json")
	ErrBodyTooLarge = errors.New("request body too large")
	ErrNotJSONBody  = errors.New("unsupported content type: expected application/json")
)

// errorRules is checked in order; the first matching target wins.
var errorRules = []struct {
	target  error
	resp    HTTPError
	message string
}{
	{target: auth.ErrUnauthorized, resp: ErrUnauthorized},
	{target: auth.ErrForbidden, resp: ErrForbidden},

	{target: quote.ErrNotFound, resp: ErrNotFound},
	{target: billing.ErrSubscriptionNotFound, resp: ErrNotFound},
	{target: referral.ErrReferrerNotFound, resp: ErrNotFound},

	{target: plan.ErrQuotaExceeded, resp: ErrQuotaExceeded, message: plan.UpgradeMessage},

	{target: quote.ErrInvalidTransition, resp: ErrInvalidTransition},
	{target: quote.ErrStatusConflict, resp: ErrInvalidTransition},

	{target: billing.ErrSignatureInvalid, resp: ErrInvalidSignature},

	{target: referral.ErrAlreadyReferred, resp: ErrBadRequest},
	{target: referral.ErrSelfReferral, resp: ErrBadRequest},
	{target: referral.ErrReferrerIDRequired, resp: ErrBadRequest},
	{target: referral.ErrInvalidReferrerID, resp: ErrBadRequest},
	{target: billing.ErrInvalidPlan, resp: ErrBadRequest},
	{target: quote.ErrInvalidStatus, resp: ErrBadRequest},
	{target: quote.ErrNoClientEmail, resp: ErrBadRequest},
	{target: ErrInvalidJSON, resp: ErrBadRequest},
	{target: ErrMissingBody, resp: ErrBadRequest},
	{target: ErrInvalidID, resp: ErrBadRequest},

	{target: ErrMissingType, resp: ErrUnsupportedMediaType},
	{target: ErrNotJSONBody, resp: ErrUnsupportedMediaType},
	{target: ErrBodyTooLarge, resp: ErrRequestTooLarge},
}

// errorToDetail resolves err to a status code and a response body.
// Messages of unmapped errors are never exposed.
func errorToDetail(err error) (int, *ErrorDetail) {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		details := make(map[string][]string, len(ve))
		for _, e := range ve {
			details[e.Field] = append(details[e.Field], e.Message)
		}
		return ErrValidation.Code, &ErrorDetail{
			Code:    ErrValidation.Key,
			Message: "validation failed",
			Details: details,
		}
	}

	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			msg := rule.message
			if msg == "" {
				msg = rule.target.Error()
			}
			return rule.resp.Code, &ErrorDetail{Code: rule.resp.Key, Message: msg}
		}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)}
	}

	return ErrInternalServerError.Code, &ErrorDetail{
		Code:    ErrInternalServerError.Key,
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
