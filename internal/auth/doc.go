// Package auth verifies HS256 bearer tokens issued by the identity provider
// and carries the resulting Identity through the request context.
//
// Tokens carry sub (user id), email, name, role and exp. The service trusts a
// valid token without re-checking credentials; Issuer.Mint exists for local
// development and the CLI.
package auth
