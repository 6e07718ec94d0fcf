package ports

import (
	"time"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

// CapabilitySigner is the capability codec: a deterministic keyed hash over
// the fixed-order payload. Pure function of its inputs, no error conditions.
type CapabilitySigner interface {
	Sign(payload domain.CapabilityPayload) string
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthClaims is the session identity carried in an API token.
type AuthClaims struct {
	UserID    uuid.UUID
	Email     string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenSigner issues and validates API session tokens.
type TokenSigner interface {
	Sign(claims AuthClaims) (string, error)
	ParseAndValidate(raw string) (AuthClaims, error)
}
