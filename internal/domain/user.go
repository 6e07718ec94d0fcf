package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Each user owns exactly one API credential
// pair used to request capability URLs.
type User struct {
	UserID       uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// APICredential is the per-subject secret material consumed by the capability
// codec. SecretHash is the value bound into signatures, not the raw secret.
type APICredential struct {
	CredentialID uuid.UUID
	UserID       uuid.UUID
	APIKey       string
	SecretHash   string
	CreatedAt    time.Time
}
