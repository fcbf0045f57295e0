// Package auth carries already-validated caller identity down from the
// HTTP shell. The core never imports this package; only internal/httpapi
// does, to gate the admin-only snapshot endpoints.
package auth

import "errors"

// Claims is an opaque bag of claims produced by whatever authenticated
// the request upstream of the core (a reverse proxy, an API gateway, a
// JWT middleware). vectorlite does not issue, verify or decrypt tokens
// itself; it only reads the claim it cares about.
type Claims map[string]any

// ErrForbidden is returned by RequireAdmin when claims lacks an admin
// claim. It sits outside internal/errors.VDBError's taxonomy, the same
// way internal/embed.Error does: authorization is a concern of the HTTP
// shell, not of the core's fixed error kinds.
var ErrForbidden = errors.New("admin claim required")

// IsAdmin reports whether claims carries a truthy "admin" claim.
func IsAdmin(claims Claims) bool {
	if claims == nil {
		return false
	}
	v, ok := claims["admin"]
	if !ok {
		return false
	}
	admin, ok := v.(bool)
	return ok && admin
}

// RequireAdmin returns ErrForbidden unless claims carries an admin claim.
// Handlers for admin-only operations (create/restore snapshot) call this
// before touching vstore.
func RequireAdmin(claims Claims) error {
	if !IsAdmin(claims) {
		return ErrForbidden
	}
	return nil
}
