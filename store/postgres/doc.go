// Package postgres implements goAccount.AccountStore and goAccount.RoleStore
// on PostgreSQL through the pgx database/sql driver.
//
// Uniqueness of email, pending token and role value is enforced by the schema.
// A violated constraint is reported as *goAccount.UniqueViolationError naming
// the constraint. UpdateFields is conditional on the stored version and fails
// with goAccount.ErrVersionConflict when another writer got there first.
//
// The schema ships embedded and is applied with [Migrate].
package postgres
