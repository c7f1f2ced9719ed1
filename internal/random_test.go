package internal

import "testing"

func TestVerificationTokensAreUniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		tok, err := NewVerificationToken()
		if err != nil {
			t.Fatalf("NewVerificationToken error: %v", err)
		}
		if !WellFormedVerificationToken(tok) {
			t.Fatalf("token %q not well formed", tok)
		}
		for _, c := range tok {
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
				t.Fatalf("token %q contains non URL-safe rune %q", tok, c)
			}
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestWellFormedVerificationTokenRejects(t *testing.T) {
	for _, s := range []string{"", "abc", "not a token at all, definitely not 43 chr", "%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%"} {
		if WellFormedVerificationToken(s) {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}

func TestSessionIDString(t *testing.T) {
	a, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID error: %v", err)
	}
	b, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID error: %v", err)
	}
	if a.String() == b.String() {
		t.Fatal("expected distinct session ids")
	}
	if len(a.String()) != 22 {
		t.Fatalf("session id length = %d; want 22", len(a.String()))
	}
}
