package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/quote"
)

// publicQuote is what an unauthenticated client sees through a share link.
type publicQuote struct {
	Quote   *quote.Quote     `json:"quote"`
	Profile *account.Profile `json:"profile"`
}

func (a *API) publicQuote(w http.ResponseWriter, r *http.Request) {
	q, err := a.Quotes.GetByShareToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	profile, err := a.Accounts.Profile(r.Context(), q.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, publicQuote{Quote: q, Profile: profile})
}

func (a *API) publicQR(w http.ResponseWriter, r *http.Request) {
	png, err := a.Exports.PublicQR(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
