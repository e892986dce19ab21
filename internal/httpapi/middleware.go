package httpapi

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dmitrymomot/quotekit/internal/auth"
)

// syncAccount mirrors the token identity into the local user table on every
// authenticated request.
func (a *API) syncAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.MustFromContext(r.Context())
		if _, err := a.Accounts.Sync(r.Context(), id.UserID, id.Email, id.Name, id.Role); err != nil {
			a.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverer turns a handler panic into a logged 500 envelope.
// http.ErrAbortHandler is re-raised so the server aborts the response.
func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			a.fail(w, r, fmt.Errorf("panic: %v\n%s", rec, debug.Stack()))
		}()
		next.ServeHTTP(w, r)
	})
}
