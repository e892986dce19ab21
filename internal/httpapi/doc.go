// Package httpapi exposes quotekit over HTTP.
//
// Every response uses the same envelope: {"data": ...} on success and
// {"error": {"code", "message", "details"}} on failure. Domain errors are
// mapped to status codes in one table (see errors.go) so handlers only
// return errors and never pick status codes for failures themselves.
//
// Routes under /api require a bearer token except the billing webhook, which
// is authenticated by the processor signature, and /api/public, which is
// rate limited per client IP.
package httpapi
