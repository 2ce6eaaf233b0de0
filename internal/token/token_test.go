package token

import (
	"errors"
	"testing"
	"time"
)

func newTestCodec() *Codec {
	return NewCodec("test-secret-key-for-token-tests!!", 0, 0)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	c := newTestCodec()

	tok, err := c.MintAccess("alice@example.com", 0)
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}
	if tok == "" {
		t.Fatal("expected non-empty token")
	}

	email, err := c.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("expected alice@example.com, got %s", email)
	}
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	c := newTestCodec()

	tok, err := c.MintRefresh("alice@example.com", 24*time.Hour)
	if err != nil {
		t.Fatalf("MintRefresh failed: %v", err)
	}

	email, err := c.VerifyRefresh(tok)
	if err != nil {
		t.Fatalf("VerifyRefresh failed: %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("expected alice@example.com, got %s", email)
	}
}

func TestVerify_WrongScope(t *testing.T) {
	c := newTestCodec()

	refresh, err := c.MintRefresh("alice@example.com", 0)
	if err != nil {
		t.Fatalf("MintRefresh failed: %v", err)
	}
	access, err := c.MintAccess("alice@example.com", 0)
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}

	// A refresh token must not pass access verification, and vice versa.
	if _, err := c.VerifyAccess(refresh); !errors.Is(err, ErrWrongScope) {
		t.Errorf("expected ErrWrongScope for refresh-as-access, got %v", err)
	}
	if _, err := c.VerifyRefresh(access); !errors.Is(err, ErrWrongScope) {
		t.Errorf("expected ErrWrongScope for access-as-refresh, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	c := newTestCodec()

	tok, err := c.mint("alice@example.com", ScopeAccess, "", time.Millisecond)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	_, err = c.VerifyAccess(tok)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Error("expected ErrExpired to satisfy ErrInvalidToken")
	}
}

func TestVerify_Malformed(t *testing.T) {
	c := newTestCodec()

	for _, tok := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := c.VerifyAccess(tok)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	signer := NewCodec("secret-one-secret-one-secret-one!", 0, 0)
	verifier := NewCodec("secret-two-secret-two-secret-two!", 0, 0)

	tok, err := signer.MintAccess("alice@example.com", 0)
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}

	_, err = verifier.VerifyAccess(tok)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Error("expected ErrInvalidSignature to satisfy ErrInvalidToken")
	}
}

func TestVerificationToken_RoundTrip(t *testing.T) {
	c := newTestCodec()

	tok, err := c.MintVerification("alice@example.com")
	if err != nil {
		t.Fatalf("MintVerification failed: %v", err)
	}

	email, err := c.DecodeVerification(tok)
	if err != nil {
		t.Fatalf("DecodeVerification failed: %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("expected alice@example.com, got %s", email)
	}
}

func TestResetToken_RoundTrip(t *testing.T) {
	c := newTestCodec()

	tok, err := c.MintReset("alice@example.com", "$2a$10$fakehash")
	if err != nil {
		t.Fatalf("MintReset failed: %v", err)
	}

	email, hash, err := c.DecodeReset(tok)
	if err != nil {
		t.Fatalf("DecodeReset failed: %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("expected alice@example.com, got %s", email)
	}
	if hash != "$2a$10$fakehash" {
		t.Errorf("expected carried hash, got %s", hash)
	}
}

func TestDecodeReset_RejectsTokenWithoutHash(t *testing.T) {
	c := newTestCodec()

	// A verification token has no pas claim; consuming it as a reset token
	// must fail rather than wiping the password with an empty hash.
	tok, err := c.MintVerification("alice@example.com")
	if err != nil {
		t.Fatalf("MintVerification failed: %v", err)
	}

	if _, _, err := c.DecodeReset(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
