package ports

import (
	"context"
	"time"
)

// CapabilityStore is the ephemeral single-use cache backing replay
// protection. Take must be an atomic delete-and-return: when concurrent
// verifications race on one URL, exactly one of them observes the signature.
type CapabilityStore interface {
	Put(ctx context.Context, subjectID, canonicalURL, signature string, ttl time.Duration) error
	// Take returns the stored signature and consumes the entry; ok is false
	// on a miss (never stored, expired, or already consumed).
	Take(ctx context.Context, subjectID, canonicalURL string) (signature string, ok bool, err error)
}
