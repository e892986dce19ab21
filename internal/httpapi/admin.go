package httpapi

import (
	"net/http"

	"github.com/dmitrymomot/quotekit/internal/admin"
)

func (a *API) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.Admin.Users(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if users == nil {
		users = []*admin.UserSummary{}
	}
	respond(w, http.StatusOK, users)
}

func (a *API) adminQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := a.Admin.Quotes(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if quotes == nil {
		quotes = []*admin.QuoteSummary{}
	}
	respond(w, http.StatusOK, quotes)
}

// adminExpireQuote is the manual trigger of the system expiry path.
func (a *API) adminExpireQuote(w http.ResponseWriter, r *http.Request) {
	quoteID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	q, err := a.Admin.ExpireQuote(r.Context(), quoteID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, q)
}
