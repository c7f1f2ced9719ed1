package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newHSManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessTTL:     3 * time.Hour,
		RefreshTTL:    30 * 24 * time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    testSecret,
		Issuer:        "accountd",
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return m
}

func TestIssueAndParseAccess(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newHSManager(t).WithClock(func() time.Time { return now })

	role := "normal"
	token, exp, err := m.IssueAccess("acc-1", &role, "sess-1")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if !exp.Equal(now.Add(3 * time.Hour)) {
		t.Fatalf("expiry = %v; want %v", exp, now.Add(3*time.Hour))
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess error: %v", err)
	}
	if claims.AccountID != "acc-1" || claims.SessionID != "sess-1" || claims.TFA {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Role == nil || *claims.Role != "normal" {
		t.Fatalf("role claim = %v; want normal", claims.Role)
	}
}

func TestAccessWithoutRoleCarriesNull(t *testing.T) {
	m := newHSManager(t)

	token, _, err := m.IssueAccess("acc-1", nil, "sess-1")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	raw := gjwt.MapClaims{}
	if _, _, err := gjwt.NewParser().ParseUnverified(token, raw); err != nil {
		t.Fatalf("ParseUnverified error: %v", err)
	}
	v, present := raw["role"]
	if !present || v != nil {
		t.Fatalf("role claim = %v (present=%v); want explicit null", v, present)
	}
}

func TestRefreshCarriesOnlySession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newHSManager(t).WithClock(func() time.Time { return now })

	token, exp, err := m.IssueRefresh("sess-9")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	if !exp.Equal(now.Add(30 * 24 * time.Hour)) {
		t.Fatalf("refresh expiry = %v", exp)
	}

	raw := gjwt.MapClaims{}
	if _, _, err := gjwt.NewParser().ParseUnverified(token, raw); err != nil {
		t.Fatalf("ParseUnverified error: %v", err)
	}
	if _, ok := raw["id"]; ok {
		t.Fatal("refresh token must not carry the account id")
	}

	claims, err := m.ParseRefresh(token)
	if err != nil {
		t.Fatalf("ParseRefresh error: %v", err)
	}
	if claims.SessionID != "sess-9" {
		t.Fatalf("session = %q", claims.SessionID)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	m := newHSManager(t)

	refresh, _, err := m.IssueRefresh("s")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	if _, err := m.ParseAccess(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("ParseAccess(refresh) error = %v; want ErrTokenInvalid", err)
	}

	access, _, err := m.IssueAccess("a", nil, "s")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if _, err := m.ParseRefresh(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("ParseRefresh(access) error = %v; want ErrTokenInvalid", err)
	}
}

func TestExpiredAccess(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newHSManager(t)

	token, _, err := m.WithClock(func() time.Time { return issued }).IssueAccess("a", nil, "s")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	later := m.WithClock(func() time.Time { return issued.Add(3*time.Hour + time.Second) })
	if _, err := later.ParseAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRejectsForeignSignatureAndAlgorithm(t *testing.T) {
	m := newHSManager(t)

	other, err := NewManager(Config{
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("another-secret-another-secret!!"),
		Issuer:        "accountd",
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	forged, _, err := other.IssueAccess("a", nil, "s")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if _, err := m.ParseAccess(forged); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign key, got %v", err)
	}

	none := gjwt.NewWithClaims(gjwt.SigningMethodNone, AccessClaims{AccountID: "a", SessionID: "s"})
	none.Header["typ"] = typeAccess
	unsigned, err := none.SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.ParseAccess(unsigned); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected alg=none to be rejected, got %v", err)
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Audience:      "api",
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	token, _, err := m.IssueAccess("a", nil, "s")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if _, err := m.ParseAccess(token); err != nil {
		t.Fatalf("ParseAccess error: %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []Config{
		{AccessTTL: 0, RefreshTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: testSecret},
		{AccessTTL: time.Hour, RefreshTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("short")},
		{AccessTTL: time.Hour, RefreshTTL: time.Hour, SigningMethod: "rs512", PrivateKey: testSecret},
		{AccessTTL: time.Hour, RefreshTTL: time.Hour, SigningMethod: MethodEd25519},
		{AccessTTL: time.Hour, RefreshTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: testSecret, Leeway: time.Hour},
	}
	for i, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: expected NewManager to fail", i)
		}
	}
}
