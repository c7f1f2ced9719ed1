package middleware

import "net/http"

// RequireAdmin is Guard followed by RequireRole(adminRole).
func RequireAdmin(v AccessValidator, adminRole string) func(http.Handler) http.Handler {
	guard := Guard(v)
	role := RequireRole(adminRole)
	return func(next http.Handler) http.Handler {
		return guard(role(next))
	}
}
