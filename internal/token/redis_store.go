package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token in Redis, the server-side stand-in for the
// dashboard's persistent browser storage.
type RedisStore struct {
	redis        *redis.Client
	key          string
	fallbackKeys []string
}

// NewRedisStore creates a store reading key first and then fallbackKeys.
// An empty key selects CanonicalKey.
func NewRedisStore(client *redis.Client, key string, fallbackKeys ...string) *RedisStore {
	if strings.TrimSpace(key) == "" {
		key = CanonicalKey
	}
	return &RedisStore{redis: client, key: key, fallbackKeys: fallbackKeys}
}

// Token implements Source.
func (s *RedisStore) Token(ctx context.Context) (string, error) {
	if s == nil || s.redis == nil {
		return "", ErrNoCredential
	}
	for _, key := range s.keys() {
		val, err := s.redis.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("token: read %s: %w", key, err)
		}
		if val = strings.TrimSpace(val); val != "" {
			return val, nil
		}
	}
	return "", ErrNoCredential
}

// Set stores tok under the canonical key. A zero ttl keeps it until removed.
func (s *RedisStore) Set(ctx context.Context, tok string, ttl time.Duration) error {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return errors.New("token: empty token")
	}
	if err := s.redis.Set(ctx, s.key, tok, ttl).Err(); err != nil {
		return fmt.Errorf("token: write %s: %w", s.key, err)
	}
	return nil
}

// Clear removes the token from every known key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.keys()...).Err(); err != nil {
		return fmt.Errorf("token: clear: %w", err)
	}
	return nil
}

func (s *RedisStore) keys() []string {
	keys := make([]string, 0, 1+len(s.fallbackKeys))
	keys = append(keys, s.key)
	for _, k := range s.fallbackKeys {
		if k = strings.TrimSpace(k); k != "" && k != s.key {
			keys = append(keys, k)
		}
	}
	return keys
}
