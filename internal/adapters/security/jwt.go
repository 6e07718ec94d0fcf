package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// JWTSigner implements HS256 token signing/parsing for API sessions.
// The key is held at adapter level so the application layer stays
// crypto-library agnostic.
type JWTSigner struct {
	secret []byte
}

// NewJWTSigner builds a signer from the configured shared secret.
func NewJWTSigner(secret string) (*JWTSigner, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTSigner{secret: []byte(secret)}, nil
}

type apiJWTClaims struct {
	UserID string `json:"_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Sign(claims ports.AuthClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, apiJWTClaims{
		UserID: claims.UserID.String(),
		Email:  claims.Email,
		Name:   claims.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	return token.SignedString(s.secret)
}

func (s *JWTSigner) ParseAndValidate(raw string) (ports.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &apiJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return ports.AuthClaims{}, err
	}
	claims, ok := parsed.Claims.(*apiJWTClaims)
	if !ok || !parsed.Valid {
		return ports.AuthClaims{}, errors.New("invalid token claims")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("parse user id: %w", err)
	}

	out := ports.AuthClaims{
		UserID: userID,
		Email:  claims.Email,
		Name:   claims.Name,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
