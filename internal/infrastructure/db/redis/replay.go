package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const replayTTL = time.Hour

// ReplayStore implements idempotency replay protection backed by Redis.
// Key format: idem:<client-supplied idempotency key>
type ReplayStore struct {
	client *redis.Client
}

// NewReplayStore wraps the given Redis client.
func NewReplayStore(client *redis.Client) *ReplayStore {
	return &ReplayStore{client: client}
}

// Remember stores value under key unless the key was already used, and
// returns the stored value plus whether this was a replay. Entries expire
// after replayTTL.
func (s *ReplayStore) Remember(ctx context.Context, key, value string) (string, bool, error) {
	set, err := s.client.SetNX(ctx, s.key(key), value, replayTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("replay setnx: %w", err)
	}
	if set {
		return value, false, nil
	}
	prev, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		return "", false, fmt.Errorf("replay get: %w", err)
	}
	return prev, true, nil
}

// Ping reports Redis connectivity for readiness probes.
func (s *ReplayStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *ReplayStore) key(idempotencyKey string) string {
	return "idem:" + idempotencyKey
}
