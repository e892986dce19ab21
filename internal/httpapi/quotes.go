package httpapi

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/quotekit/internal/auth"
	"github.com/dmitrymomot/quotekit/internal/quote"
)

type transitionRequest struct {
	Status string `json:"status"`
}

type shareLink struct {
	ShareToken string `json:"share_token"`
	URL        string `json:"url"`
}

func (a *API) listQuotes(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	quotes, err := a.Quotes.List(r.Context(), id.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if quotes == nil {
		quotes = []*quote.Quote{}
	}
	respond(w, http.StatusOK, quotes)
}

func (a *API) createQuote(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	var in quote.CreateInput
	if err := bindJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	q, err := a.Quotes.Create(r.Context(), id.UserID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, q)
}

func (a *API) getQuote(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	quoteID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	q, err := a.Quotes.Get(r.Context(), id.UserID, quoteID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, q)
}

func (a *API) updateQuoteItems(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	quoteID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in quote.UpdateItemsInput
	if err := bindJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	q, err := a.Quotes.UpdateLineItems(r.Context(), id.UserID, quoteID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, q)
}

func (a *API) transitionQuote(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	quoteID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req transitionRequest
	if err := bindJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	to, err := quote.ParseStatus(req.Status)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	q, err := a.Quotes.Transition(r.Context(), id.UserID, quoteID, to)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, q)
}

func (a *API) deleteQuote(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	quoteID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Quotes.Delete(r.Context(), id.UserID, quoteID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) shareQuote(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	quoteID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	q, err := a.Quotes.IssueShareToken(r.Context(), id.UserID, quoteID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, shareLink{
		ShareToken: *q.ShareToken,
		URL:        quote.PublicURL(a.baseURL, *q.ShareToken),
	})
}

func (a *API) shareQuoteByEmail(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	quoteID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	shared, err := a.Sharer.ShareByEmail(r.Context(), id.UserID, quoteID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, shared)
}

func (a *API) exportQuote(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	quoteID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	file, err := a.Exports.PDF(r.Context(), id.UserID, quoteID)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
