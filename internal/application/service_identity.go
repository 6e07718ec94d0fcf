package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// Register creates the account and its API credential atomically. A user
// without a credential could never obtain a signed URL, so the two rows are
// written in one transaction.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return RegisterResponse{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return RegisterResponse{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if len(req.Password) < 8 {
		return RegisterResponse{}, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("hash password: %w", err)
	}

	apiKey, err := randomToken(16)
	if err != nil {
		return RegisterResponse{}, err
	}
	apiSecret, err := randomToken(32)
	if err != nil {
		return RegisterResponse{}, err
	}

	user, err := s.users.CreateWithCredentialTx(ctx, ports.CreateUserTxParams{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		APIKey:       apiKey,
		SecretHash:   hashSecret(apiSecret),
		CreatedAtUTC: s.nowFn(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return RegisterResponse{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return RegisterResponse{}, err
	}

	return RegisterResponse{
		UserID:    user.UserID,
		Email:     user.Email,
		Name:      user.Name,
		APIKey:    apiKey,
		APISecret: apiSecret,
	}, nil
}

// Login exchanges a password for an API session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LoginResponse{}, domain.ErrInvalidCredentials
		}
		return LoginResponse{}, err
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	now := s.nowFn()
	expiresAt := now.Add(s.cfg.TokenTTL)
	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		UserID:    user.UserID,
		Email:     user.Email,
		Name:      user.Name,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate validates a bearer token and returns its claims.
func (s *Service) Authenticate(raw string) (ports.AuthClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(raw)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return claims, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return email, nil
}

func randomToken(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// hashSecret derives the stored form of an API secret. The stored hash, not
// the raw secret, is the value bound into capability signatures.
func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
