package password

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestMigratingVerifiesLegacyBcrypt(t *testing.T) {
	m := NewMigrating(newTestArgon2(t))

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), 5)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}

	ok, err := m.Verify("secret1", string(legacy))
	if err != nil || !ok {
		t.Fatalf("Verify(bcrypt) = %v, %v; want true", ok, err)
	}

	ok, err = m.Verify("wrong", string(legacy))
	if err != nil || ok {
		t.Fatalf("Verify(bcrypt, wrong) = %v, %v; want false", ok, err)
	}

	up, err := m.NeedsUpgrade(string(legacy))
	if err != nil || !up {
		t.Fatalf("NeedsUpgrade(bcrypt) = %v, %v; want true", up, err)
	}
}

func TestMigratingHashesWithArgon2(t *testing.T) {
	m := NewMigrating(newTestArgon2(t))

	digest, err := m.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if up, err := m.NeedsUpgrade(digest); err != nil || up {
		t.Fatalf("NeedsUpgrade(fresh) = %v, %v; want false", up, err)
	}
	if ok, err := m.Verify("secret1", digest); err != nil || !ok {
		t.Fatalf("Verify = %v, %v; want true", ok, err)
	}
}

func TestMigratingRejectsUnknownScheme(t *testing.T) {
	m := NewMigrating(newTestArgon2(t))
	if _, err := m.Verify("x", "$md5$abc"); !errors.Is(err, ErrUnsupportedHash) {
		t.Fatalf("expected ErrUnsupportedHash, got %v", err)
	}
}
