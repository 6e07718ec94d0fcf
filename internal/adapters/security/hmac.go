package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

// HMACSigner implements the capability codec with HMAC-SHA256 over the JSON
// encoding of the payload struct. Struct marshalling fixes the field set and
// order, so issue and verify sides always hash identical bytes as long as
// they build the same CapabilityPayload, numeric expiry included.
type HMACSigner struct {
	key []byte
}

// NewHMACSigner creates a signer keyed with the server-wide capability secret.
func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{key: []byte(secret)}
}

func (s *HMACSigner) Sign(payload domain.CapabilityPayload) string {
	raw, _ := json.Marshal(payload)
	mac := hmac.New(sha256.New, s.key)
	mac.Write(raw)
	return hex.EncodeToString(mac.Sum(nil))
}
