package security

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher derives the stored digests for login passwords and raw API
// secrets. The API-secret digest doubles as the per-user key material inside
// capability payloads, so both concerns share one cost setting.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps the configured cost into bcrypt's supported range.
// Anything below the minimum falls back to the library default rather than
// silently weakening the digests.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.DefaultCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h *BcryptHasher) Compare(digest, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret))
}
