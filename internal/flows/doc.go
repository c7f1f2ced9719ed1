// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunStartRegistration, RunResetPassword, etc.)
// accepts a typed dependency struct and returns results without side-effects
// beyond those dependencies. The Engine builds the dependency structs and
// stays thin.
//
// # Architecture boundaries
//
// Flows coordinate the account store, the hashing pool, the token signer,
// the notifier, audit and metrics. They do NOT own any of these resources.
// Ownership stays with the Engine.
//
// Host sentinel errors, metric ids and audit event names are passed in
// through the Errors, Metrics and Events fields so this package never
// imports the root package.
package flows
