package security

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

func TestJWTSignerRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner("jwt-secret")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	in := ports.AuthClaims{
		UserID:    uuid.New(),
		Email:     "owner@example.com",
		Name:      "Owner",
		IssuedAt:  now,
		ExpiresAt: now.Add(48 * time.Hour),
	}

	raw, err := signer.Sign(in)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	out, err := signer.ParseAndValidate(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.UserID != in.UserID || out.Email != in.Email || out.Name != in.Name {
		t.Fatalf("claims mismatch: got %+v", out)
	}
	if !out.ExpiresAt.Equal(in.ExpiresAt) {
		t.Fatalf("expected expiry %v, got %v", in.ExpiresAt, out.ExpiresAt)
	}
}

func TestJWTSignerRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	signer, _ := NewJWTSigner("jwt-secret")
	now := time.Now().UTC()
	raw, err := signer.Sign(ports.AuthClaims{
		UserID:    uuid.New(),
		Email:     "owner@example.com",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.Split(raw, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := signer.ParseAndValidate(tampered); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestJWTSignerRejectsWrongKey(t *testing.T) {
	t.Parallel()

	signer, _ := NewJWTSigner("jwt-secret")
	other, _ := NewJWTSigner("different-secret")
	now := time.Now().UTC()
	raw, err := signer.Sign(ports.AuthClaims{
		UserID:    uuid.New(),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := other.ParseAndValidate(raw); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}
}

func TestJWTSignerRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, _ := NewJWTSigner("jwt-secret")
	now := time.Now().UTC()
	raw, err := signer.Sign(ports.AuthClaims{
		UserID:    uuid.New(),
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.ParseAndValidate(raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
