package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedNamespace = "revoked:"

// NewRedisClient creates a client from config and checks the connection.
func NewRedisClient(ctx context.Context, config *Config) (*redis.Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	opts, err := config.Options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisRevocationList implements RevocationList with one expiring key per
// revoked token.
type RedisRevocationList struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisRevocationList wraps a Redis client. Keys are written under
// prefix + "revoked:".
func NewRedisRevocationList(client redis.UniversalClient, prefix string) *RedisRevocationList {
	return &RedisRevocationList{client: client, prefix: prefix + revokedNamespace, now: time.Now}
}

func (r *RedisRevocationList) key(tokenID string) string {
	return r.prefix + tokenID
}

// Revoke stores the token id with a TTL matching the token's remaining life.
func (r *RedisRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.key(tokenID), until.Unix(), ttl).Err(); err != nil {
		return NewCacheError("failed to revoke token", true).WithError(err)
	}
	return nil
}

// IsRevoked checks for the token's key.
func (r *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, NewCacheError("failed to check revocation", true).WithError(err)
	}
	return n > 0, nil
}

// Ping checks if the cache is healthy
func (r *RedisRevocationList) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return NewCacheError("ping failed", false).WithError(err)
	}
	return nil
}

// Close closes the cache connection
func (r *RedisRevocationList) Close() error {
	return r.client.Close()
}

// TTL returns how long a revocation is still kept. Zero for unknown ids.
func (r *RedisRevocationList) TTL(ctx context.Context, tokenID string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.key(tokenID)).Result()
	if err != nil {
		return 0, NewCacheError("failed to get TTL", true).WithError(err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
