package internal

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SessionID identifies one login. It is never persisted.
type SessionID [16]byte

const verificationTokenSize = 32

// VerificationTokenLen is the encoded length of a verification token.
var VerificationTokenLen = base64.RawURLEncoding.EncodedLen(verificationTokenSize)

func NewSessionID() (SessionID, error) {
	var sid SessionID
	if _, err := rand.Read(sid[:]); err != nil {
		return sid, fmt.Errorf("read session id: %w", err)
	}
	return sid, nil
}

func (s SessionID) String() string {
	return base64.RawURLEncoding.EncodeToString(s[:])
}

// NewVerificationToken returns 256 bits of randomness, base64url without
// padding, safe to embed in a query string.
func NewVerificationToken() (string, error) {
	var raw [verificationTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("read verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// WellFormedVerificationToken reports whether s could have been produced by
// NewVerificationToken, so obviously bogus links skip the store round trip.
func WellFormedVerificationToken(s string) bool {
	if len(s) != VerificationTokenLen {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil && len(raw) == verificationTokenSize
}
