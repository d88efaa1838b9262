package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps the session in a key-value store, one key per
// session value: <prefix>token and <prefix>user.
type RedisSessionStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore creates a store using the given client and key prefix.
// A ttl of zero keeps the keys until cleared.
func NewRedisSessionStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisSessionStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisSessionStore) get(ctx context.Context, name string) (string, error) {
	val, err := s.rdb.Get(ctx, s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session %s: %w", name, err)
	}
	return val, nil
}

func (s *RedisSessionStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, SessionTokenKey)
}

func (s *RedisSessionStore) SetToken(ctx context.Context, token string) error {
	if err := s.rdb.Set(ctx, s.key(SessionTokenKey), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing session token: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) User(ctx context.Context) (json.RawMessage, error) {
	val, err := s.get(ctx, SessionUserKey)
	if err != nil || val == "" {
		return nil, err
	}
	return json.RawMessage(val), nil
}

func (s *RedisSessionStore) SetUser(ctx context.Context, user json.RawMessage) error {
	if err := s.rdb.Set(ctx, s.key(SessionUserKey), string(user), s.ttl).Err(); err != nil {
		return fmt.Errorf("writing session user: %w", err)
	}
	return nil
}

// Clear removes both keys. Deleting missing keys is not an error.
func (s *RedisSessionStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key(SessionTokenKey), s.key(SessionUserKey)).Err(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
