// Package jwt signs and verifies the stateless session tokens handed out at
// login.
//
// Two token types share one key: access tokens carry the account id, the
// primary role, the session id and the second-factor flag; refresh tokens
// carry only the session id. The JOSE "typ" header tells them apart so one
// can never be presented in place of the other.
package jwt
