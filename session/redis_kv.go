package session

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const minSlotTTL = time.Second

// RedisKV stores session slots as plain Redis strings under prefix.
//
// A positive ttl expires both slots; with jitter enabled each write shifts the
// expiry by a random amount in [-jitterRange, +jitterRange], clamped to at
// least one second.
type RedisKV struct {
	redis         redis.UniversalClient
	prefix        string
	ttl           time.Duration
	jitterEnabled bool
	jitterRange   time.Duration
}

// NewRedisKV creates a [RedisKV] backed by the given Redis client.
func NewRedisKV(
	client redis.UniversalClient,
	prefix string,
	ttl time.Duration,
	jitterEnabled bool,
	jitterRange time.Duration,
) *RedisKV {
	return &RedisKV{
		redis:         client,
		prefix:        prefix,
		ttl:           ttl,
		jitterEnabled: jitterEnabled,
		jitterRange:   jitterRange,
	}
}

func (s *RedisKV) key(slot string) string {
	if s.prefix == "" {
		return slot
	}
	return s.prefix + ":" + slot
}

// Get performs one Redis GET. redis.Nil is reported as a missing slot.
func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, kvError("SESSION_KV_GET", "get", key, err)
	}
	return v, true, nil
}

// Set performs one Redis SET, with expiry when a TTL is configured.
func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	ttl, err := s.nextTTL()
	if err != nil {
		return kvError("SESSION_KV_SET", "set", key, err)
	}
	if err := s.redis.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return kvError("SESSION_KV_SET", "set", key, err)
	}
	return nil
}

// Remove performs one Redis DEL. Removing a missing slot is not an error.
func (s *RedisKV) Remove(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return kvError("SESSION_KV_REMOVE", "remove", key, err)
	}
	return nil
}

// Ping reports the round-trip latency to Redis.
func (s *RedisKV) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, kvError("SESSION_KV_PING", "ping", "", err)
	}
	return time.Since(start), nil
}

func (s *RedisKV) nextTTL() (time.Duration, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	next := s.ttl
	if s.jitterEnabled && s.jitterRange > 0 {
		jitter, err := randomJitter(s.jitterRange)
		if err != nil {
			return 0, err
		}
		next += jitter
	}

	if next < minSlotTTL {
		next = minSlotTTL
	}
	return next, nil
}

func randomJitter(jitterRange time.Duration) (time.Duration, error) {
	if jitterRange <= 0 {
		return 0, nil
	}

	max := jitterRange.Nanoseconds()
	if max > (math.MaxInt64-1)/2 {
		return 0, errors.New("jitter range too large")
	}
	span := max*2 + 1

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return 0, err
	}

	return time.Duration(n.Int64() - max), nil
}
