package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCapabilityStore keeps signed-URL signatures alive for one use within
// their TTL. The key embeds the full canonical URL, so any byte-level change
// to the request produces a cache miss before the signature is even checked.
type RedisCapabilityStore struct {
	client *redis.Client
}

// NewRedisCapabilityStore creates the single-use capability cache adapter.
func NewRedisCapabilityStore(client *redis.Client) *RedisCapabilityStore {
	return &RedisCapabilityStore{client: client}
}

func capabilityKey(subjectID, canonicalURL string) string {
	return "user:" + subjectID + ":" + canonicalURL
}

func (s *RedisCapabilityStore) Put(ctx context.Context, subjectID, canonicalURL, signature string, ttl time.Duration) error {
	return s.client.Set(ctx, capabilityKey(subjectID, canonicalURL), signature, ttl).Err()
}

// Take consumes the entry with GETDEL, so two racing verifications of the
// same URL can never both succeed.
func (s *RedisCapabilityStore) Take(ctx context.Context, subjectID, canonicalURL string) (string, bool, error) {
	signature, err := s.client.GetDel(ctx, capabilityKey(subjectID, canonicalURL)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return signature, true, nil
}
