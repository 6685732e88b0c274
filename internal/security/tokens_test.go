package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestProvider(t *testing.T) *TokenProvider {
	t.Helper()
	return NewTestTokenProvider()
}

func TestTokenProvider_RoundTrip(t *testing.T) {
	p := newTestProvider(t)
	payload := Payload{UserID: "u1", Email: "jane@acme.com", OrgID: "o1"}

	access, exp, err := p.IssueAccess(payload)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access == "" || !exp.After(time.Now()) {
		t.Fatalf("IssueAccess: token=%q exp=%v", access, exp)
	}
	got, err := p.ValidateAccess(access)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if got != payload {
		t.Errorf("ValidateAccess: got %+v, want %+v", got, payload)
	}

	refresh, rexp, err := p.IssueRefresh(payload)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if !rexp.After(exp) {
		t.Errorf("refresh expiry %v should be after access expiry %v", rexp, exp)
	}
	got, err = p.ValidateRefresh(refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if got != payload {
		t.Errorf("ValidateRefresh: got %+v, want %+v", got, payload)
	}
}

func TestTokenProvider_RefreshTokensAreDistinct(t *testing.T) {
	p := newTestProvider(t)
	payload := Payload{UserID: "u1", Email: "a@b.com"}
	a, _, _ := p.IssueRefresh(payload)
	b, _, _ := p.IssueRefresh(payload)
	if a == b {
		t.Error("two refresh tokens issued in the same second must differ")
	}
}

func TestTokenProvider_TypesNotInterchangeable(t *testing.T) {
	p := newTestProvider(t)
	payload := Payload{UserID: "u1", Email: "a@b.com"}
	access, _, _ := p.IssueAccess(payload)
	refresh, _, _ := p.IssueRefresh(payload)

	if _, err := p.ValidateRefresh(access); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("access as refresh: want ErrTokenMalformed, got %v", err)
	}
	if _, err := p.ValidateAccess(refresh); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("refresh as access: want ErrTokenMalformed, got %v", err)
	}
}

func TestTokenProvider_Expired(t *testing.T) {
	p := newTestProvider(t)
	issued := time.Now().UTC().Add(-time.Hour)
	p.now = func() time.Time { return issued }
	access, _, err := p.IssueAccess(Payload{UserID: "u1"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	p.now = func() time.Time { return time.Now().UTC() }

	_, err = p.ValidateAccess(access)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ErrTokenExpired must wrap ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_Malformed(t *testing.T) {
	p := newTestProvider(t)
	for _, tok := range []string{"", "invalid-token", "a.b.c", "not.a.jwt.at.all"} {
		_, err := p.ValidateAccess(tok)
		if !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("ValidateAccess(%q): want ErrTokenMalformed, got %v", tok, err)
		}
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateAccess(%q): want ErrInvalidToken parent, got %v", tok, err)
		}
	}
}

func TestTokenProvider_BadSignature(t *testing.T) {
	p := newTestProvider(t)
	access, _, _ := p.IssueAccess(Payload{UserID: "u1"})

	parts := strings.Split(access, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)
	if _, err := p.ValidateAccess(tampered); !errors.Is(err, ErrTokenBadSignature) {
		t.Errorf("tampered signature: want ErrTokenBadSignature, got %v", err)
	}

	otherKey, err := NewHMACKey([]byte(strings.Repeat("k", 32)))
	if err != nil {
		t.Fatalf("NewHMACKey: %v", err)
	}
	other := NewTokenProvider(otherKey, "airguard-test", "airguard-test-api", time.Minute, time.Hour)
	foreign, _, _ := other.IssueAccess(Payload{UserID: "u1"})
	if _, err := p.ValidateAccess(foreign); !errors.Is(err, ErrTokenBadSignature) {
		t.Errorf("foreign signing method: want ErrTokenBadSignature, got %v", err)
	}
}

func TestTokenProvider_IssuerAudience(t *testing.T) {
	key, _ := NewHMACKey([]byte(strings.Repeat("k", 32)))
	a := NewTokenProvider(key, "issuer-a", "aud", time.Minute, time.Hour)
	b := NewTokenProvider(key, "issuer-b", "aud", time.Minute, time.Hour)
	c := NewTokenProvider(key, "issuer-a", "other-aud", time.Minute, time.Hour)

	tok, _, err := a.IssueAccess(Payload{UserID: "u1"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := a.ValidateAccess(tok); err != nil {
		t.Fatalf("same provider: %v", err)
	}
	if _, err := b.ValidateAccess(tok); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("wrong issuer: want ErrTokenMalformed, got %v", err)
	}
	if _, err := c.ValidateAccess(tok); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("wrong audience: want ErrTokenMalformed, got %v", err)
	}
}

func TestTokenProvider_EmptyUserID(t *testing.T) {
	p := newTestProvider(t)
	if _, _, err := p.IssueAccess(Payload{Email: "a@b.com"}); err == nil {
		t.Error("IssueAccess without user id: want error")
	}
}
