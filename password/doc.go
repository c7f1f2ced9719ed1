// Package password hashes and verifies account passwords.
//
// New digests are argon2id in PHC string form:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// [Migrating] additionally verifies bcrypt digests written by the legacy
// system and reports them as needing an upgrade, so they are replaced with
// argon2id on the next successful login. [Pool] bounds how many hashes run at
// once so slow key derivation cannot starve unrelated requests.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive digests.
//   - Enforce length policy. That is the engine's job.
//   - Log plaintexts or digests.
package password
