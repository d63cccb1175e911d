// Package idempotency remembers Idempotency-Key headers so a retried request
// does not create a second rental.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "idem:"
	pendingMarker = "pending"
	DefaultTTL    = 24 * time.Hour
)

// ErrInFlight is returned for a key whose first request has not finished.
var ErrInFlight = errors.New("request with this idempotency key is still in progress")

type Store interface {
	// Claim reserves key. It returns false when the key was already claimed.
	Claim(ctx context.Context, key string) (bool, error)
	// Complete stores the outcome of the claimed request.
	Complete(ctx context.Context, key, result string) error
	// Result returns the stored outcome, ErrInFlight while the first request
	// still runs, or "" for an unknown key.
	Result(ctx context.Context, key string) (string, error)
	// Release forgets key so the client may retry.
	Release(ctx context.Context, key string) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Claim(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, keyPrefix+key, pendingMarker, s.ttl).Result()
}

func (s *RedisStore) Complete(ctx context.Context, key, result string) error {
	return s.client.Set(ctx, keyPrefix+key, result, s.ttl).Err()
}

func (s *RedisStore) Result(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if val == pendingMarker {
		return "", ErrInFlight
	}
	return val, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

// Noop accepts every key; used when no redis is configured.
type Noop struct{}

func (Noop) Claim(context.Context, string) (bool, error) { return true, nil }
func (Noop) Complete(context.Context, string, string) error { return nil }
func (Noop) Result(context.Context, string) (string, error) { return "", nil }
func (Noop) Release(context.Context, string) error { return nil }
