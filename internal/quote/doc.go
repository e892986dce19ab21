// Package quote owns the quote aggregate: creation through the plan gate and
// pricing calculator, line-item replacement, the status lifecycle and
// share-token issuance for public read-only access.
//
// Every operation takes the acting user's id explicitly. Lookups are scoped to
// that owner and report ErrNotFound for quotes that exist but belong to someone
// else. The two exceptions are GetByShareToken (public access) and Expire
// (system path, no owner check).
package quote
