package httpapi

import (
	"net/http"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/auth"
)

type referralRequest struct {
	ReferrerID string `json:"referrer_id"`
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	p, err := a.Accounts.Profile(r.Context(), id.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	var in account.ProfileInput
	if err := bindJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.Accounts.UpdateProfile(r.Context(), id.UserID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (a *API) planEligibility(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	e, err := a.Plans.Eligibility(r.Context(), id.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, e)
}

func (a *API) listReferrals(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	overview, err := a.Referrals.List(r.Context(), id.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, overview)
}

func (a *API) createReferral(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	var req referralRequest
	if err := bindJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ref, err := a.Referrals.Create(r.Context(), id.UserID, req.ReferrerID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, ref)
}

func (a *API) analytics(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	report, err := a.Analytics.Report(r.Context(), id.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, report)
}
