// Package goAccount runs the lifecycle of email/password accounts: login with
// stateless JWT sessions, self-registration confirmed by an emailed link,
// password reset by an emailed link, and administrative account and role
// management.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goAccount is the public surface. It exposes [Engine], [Builder], [Config],
// the [AccountStore], [RoleStore] and [Notifier] contracts, and value types
// (Account, AccountView, Session, Acknowledgement, MetricsSnapshot). Flow
// orchestration lives under internal/flows and is never exported.
// Implementations of the contracts live in store/postgres and notify.
//
// # Account state
//
// An account is pending, active or banned. It carries at most one pending
// verification {token, expiresAt, purpose}. Issuing a confirmation or reset
// token overwrites the slot, so only the most recently issued token is ever
// valid. Tokens are written with update-if-version; a lost race is re-read
// and retried a bounded number of times.
//
// # What this package must NOT do
//
//   - Reveal through its results whether an email is registered, except where
//     StartRegistration reports ErrEmailAlreadyRegistered.
//   - Log tokens, passwords or unredacted emails.
//   - Roll back a state change because the Notifier failed.
package goAccount
