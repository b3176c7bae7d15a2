package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T, opts ...TokenOption) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-secret", opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	p := Principal{LoginID: "a@x.com", Roles: []string{"USUARIO"}, Kind: KindEndUser}
	token, exp, err := svc.Issue(p)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", exp)
	}
	if len(strings.Split(token, ".")) != 3 {
		t.Fatalf("expected three token segments, got %q", token)
	}

	id, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Subject != "a@x.com" {
		t.Fatalf("unexpected subject: %s", id.Subject)
	}
	if len(id.Roles) != 1 || id.Roles[0] != "USUARIO" {
		t.Fatalf("roles were not preserved exactly: %v", id.Roles)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	past := time.Now().Add(-3 * time.Hour)
	issuing := newTestTokenService(t, WithClock(func() time.Time { return past }))

	token, _, err := issuing.Issue(Principal{LoginID: "a@x.com", Roles: []string{"USUARIO"}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	verifying := newTestTokenService(t)
	if _, err := verifying.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	svc := newTestTokenService(t)
	token, _, err := svc.Issue(Principal{LoginID: "a@x.com", Roles: []string{"USUARIO"}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Flip one character in the signature segment.
	i := strings.LastIndex(token, ".") + 1
	flipped := byte('A')
	if token[i] == 'A' {
		flipped = 'B'
	}
	tampered := token[:i] + string(flipped) + token[i+1:]
	if tampered == token {
		t.Fatal("tampering produced an identical token")
	}

	if _, err := svc.Verify(tampered); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	issuing := newTestTokenService(t)
	other, err := NewTokenService("another-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _, err := issuing.Issue(Principal{LoginID: "a@x.com", Roles: []string{"USUARIO"}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t)
	for _, raw := range []string{"not-a-token", "a.b", "a.b.c.d", "...."} {
		if _, err := svc.Verify(raw); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("Verify(%q): expected ErrMalformedToken, got %v", raw, err)
		}
	}
	if _, err := svc.Verify("  "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken for blank input, got %v", err)
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService("   "); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestIdentityContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := IdentityFromContext(ctx); ok {
		t.Fatal("expected no identity in fresh context")
	}

	ctx = ContextWithIdentity(ctx, Identity{Subject: "a@x.com", Roles: []string{"USUARIO"}})
	id, ok := IdentityFromContext(ctx)
	if !ok || id.Subject != "a@x.com" {
		t.Fatalf("unexpected identity: %+v ok=%v", id, ok)
	}
	if !id.HasRole("USUARIO") || id.HasRole("PRESTADOR_SERVICO") {
		t.Fatalf("unexpected role membership: %v", id.Roles)
	}

	// Blank subjects are never attached.
	ctx2 := ContextWithIdentity(context.Background(), Identity{Subject: "  "})
	if _, ok := IdentityFromContext(ctx2); ok {
		t.Fatal("blank identity should not be stored")
	}
}
