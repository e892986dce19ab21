package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrymomot/quotekit/internal/auth"
	"github.com/dmitrymomot/quotekit/internal/billing"
)

type checkoutRequest struct {
	Plan string `json:"plan"`
}

type webhookAck struct {
	Received bool `json:"received"`
}

func (a *API) subscription(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	sub, err := a.Billing.Subscription(r.Context(), id.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (a *API) payments(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	payments, err := a.Billing.Payments(r.Context(), id.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if payments == nil {
		payments = []*billing.Payment{}
	}
	respond(w, http.StatusOK, payments)
}

func (a *API) checkout(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	var req checkoutRequest
	if err := bindJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	session, err := a.Billing.Checkout(r.Context(), billing.Customer{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
	}, req.Plan)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, session)
}

func (a *API) portal(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	session, err := a.Billing.Portal(r.Context(), id.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, session)
}

// billingWebhook acknowledges every authentic delivery, including ones whose
// processing failed, so the processor does not retry them. The acknowledgement
// is written bare, outside the envelope.
func (a *API) billingWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.fail(w, r, ErrBodyTooLarge)
			return
		}
		a.fail(w, r, errors.Join(ErrInvalidJSON, err))
		return
	}

	signature := r.Header.Get(a.Billing.SignatureHeader())
	if err := a.Billing.HandleWebhook(r.Context(), payload, signature); err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(webhookAck{Received: true})
}
