// Package middleware exposes HTTP guards built on goAccount access-token
// validation.
//
// # Guards
//
//   - [Guard]: requires a valid bearer access token.
//   - [RequireRole]: requires one of the named roles; runs behind Guard.
//   - [RequireAdmin]: Guard and RequireRole combined.
//
// Guard reads the Authorization header, calls ValidateAccess, and injects the
// validated claims into the request context.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the engine).
//   - Touch the account store.
package middleware
