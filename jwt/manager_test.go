package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/schoolAuth/role"
	gjwt "github.com/golang-jwt/jwt/v5"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newHSManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "schoolauth-test",
		Now:    clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub, priv
}

func TestMintVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	m := newHSManager(t, clock)

	token, minted, err := m.Mint(Subject{ID: "acc-1", Role: role.Teacher, TenantID: "sch-1", TenantCode: "GREEN01"})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if got := minted.ExpiresAt.Sub(minted.IssuedAt.Time); got != DefaultTTL {
		t.Fatalf("expected ttl %v, got %v", DefaultTTL, got)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "acc-1" || claims.TenantID != "sch-1" || claims.TenantCode != "GREEN01" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	r, err := claims.ParsedRole()
	if err != nil || r != role.Teacher {
		t.Fatalf("expected TEACHER role, got %v (%v)", r, err)
	}
	if claims.Issuer != "schoolauth-test" {
		t.Fatalf("expected issuer, got %q", claims.Issuer)
	}
}

func TestVerifyExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	m := newHSManager(t, clock)

	token, _, err := m.Mint(Subject{ID: "acc-1", Role: role.Parent})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	clock.Advance(11*time.Hour + 59*time.Minute)
	if _, err := m.Verify(token); err != nil {
		t.Fatalf("expected token valid before 12h, got %v", err)
	}

	clock.Advance(2 * time.Minute)
	if _, err := m.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newHSManager(t, clock)

	token, _, err := m.Mint(Subject{ID: "acc-1", Role: role.Student})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	cases := map[string]string{
		"garbage":   "not-a-token",
		"empty":     "",
		"tampered":  token[:len(token)-2] + "xx",
		"truncated": strings.Join(strings.Split(token, ".")[:2], "."),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Verify(tok); !errors.Is(err, ErrTokenMalformed) {
				t.Fatalf("expected ErrTokenMalformed, got %v", err)
			}
		})
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newHSManager(t, clock)
	other, err := NewManager(Config{Secret: []byte("another-secret-another-secret-xx"), Issuer: "schoolauth-test", Now: clock.Now})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, _, err := other.Mint(Subject{ID: "acc-1", Role: role.Student})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestVerifyRejectsAlgorithmSwitch(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newHSManager(t, clock)

	claims := &Claims{
		Role: role.SuperAdmin.String(),
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "acc-1",
			Issuer:    "schoolauth-test",
			IssuedAt:  gjwt.NewNumericDate(clock.now),
			ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}
	none, err := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims).SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.Verify(none); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected alg none rejected, got %v", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newHSManager(t, clock)
	other, err := NewManager(Config{Secret: []byte("0123456789abcdef0123456789abcdef"), Issuer: "elsewhere", Now: clock.Now})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, _, err := other.Mint(Subject{ID: "acc-1", Role: role.Student})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected issuer mismatch rejected, got %v", err)
	}
}

func TestMissingSecret(t *testing.T) {
	m, err := NewManager(Config{})
	if err != nil {
		t.Fatalf("NewManager without key should succeed: %v", err)
	}
	if m.Configured() {
		t.Fatal("expected unconfigured manager")
	}
	if _, _, err := m.Mint(Subject{ID: "acc-1", Role: role.Teacher}); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing from Mint, got %v", err)
	}
	if _, err := m.Verify("a.b.c"); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing from Verify, got %v", err)
	}
}

func TestMintRejectsInvalidSubject(t *testing.T) {
	m := newHSManager(t, &fakeClock{now: time.Now()})
	if _, _, err := m.Mint(Subject{Role: role.Teacher}); err == nil {
		t.Fatal("expected empty subject rejected")
	}
	if _, _, err := m.Mint(Subject{ID: "acc-1"}); !errors.Is(err, role.ErrUnknownRole) {
		t.Fatalf("expected unknown role rejected, got %v", err)
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv := newEdKeys(t)
	clock := &fakeClock{now: time.Now()}

	signer, err := NewManager(Config{SigningMethod: MethodEd25519, PrivateKey: priv, Now: clock.Now})
	if err != nil {
		t.Fatalf("NewManager signer: %v", err)
	}
	verifier, err := NewManager(Config{SigningMethod: MethodEd25519, PublicKey: pub, Now: clock.Now})
	if err != nil {
		t.Fatalf("NewManager verifier: %v", err)
	}

	token, _, err := signer.Mint(Subject{ID: "acc-9", Role: role.SchoolAdmin, TenantID: "sch-2"})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "acc-9" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if _, _, err := verifier.Mint(Subject{ID: "acc-9", Role: role.SchoolAdmin}); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("verify-only manager must not mint, got %v", err)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: "rs512"}); err == nil {
		t.Fatal("expected unsupported method error")
	}
	if _, err := NewManager(Config{Leeway: time.Hour}); err == nil {
		t.Fatal("expected leeway error")
	}
	if _, err := NewManager(Config{SigningMethod: MethodEd25519, PrivateKey: []byte("short")}); err == nil {
		t.Fatal("expected invalid key error")
	}
}

func FuzzVerify(f *testing.F) {
	m, err := NewManager(Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		f.Fatalf("NewManager: %v", err)
	}
	f.Add("a.b.c")
	f.Add("")
	f.Add("eyJhbGciOiJub25lIn0.e30.")
	f.Fuzz(func(t *testing.T, token string) {
		_, _ = m.Verify(token)
	})
}
