// Package internal holds token material helpers shared by the engine.
//
// # What this package must NOT do
//
//   - Import goAccount.
//   - Store anything. Every value is generated fresh per call.
package internal
