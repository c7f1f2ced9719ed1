package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is the contract the engine consumes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
	NeedsUpgrade(digest string) (bool, error)
}

// Migrating hashes with argon2id and still verifies bcrypt digests.
type Migrating struct {
	primary *Argon2
}

// NewMigrating wraps primary so that legacy bcrypt digests keep verifying.
func NewMigrating(primary *Argon2) *Migrating {
	return &Migrating{primary: primary}
}

// Hash always produces an argon2id digest.
func (m *Migrating) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

// Verify dispatches on the digest prefix.
func (m *Migrating) Verify(password, digest string) (bool, error) {
	switch {
	case m.primary.Recognizes(digest):
		return m.primary.Verify(password, digest)
	case isBcrypt(digest):
		err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, ErrMalformedHash
		}
		return true, nil
	default:
		return false, ErrUnsupportedHash
	}
}

// NeedsUpgrade is always true for bcrypt digests.
func (m *Migrating) NeedsUpgrade(digest string) (bool, error) {
	if isBcrypt(digest) {
		return true, nil
	}
	return m.primary.NeedsUpgrade(digest)
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}
