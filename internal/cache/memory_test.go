package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRevocationList checks the behaviour shared by every RevocationList.
func testRevocationList(t *testing.T, list RevocationList) {
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "tok-1", time.Now().Add(time.Hour)))
	revoked, err = list.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, list.Revoke(ctx, "tok-2", time.Now().Add(-time.Minute)))
	revoked, err = list.IsRevoked(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, revoked, "already expired tokens need no revocation")

	assert.NoError(t, list.Ping(ctx))
}

func TestMemoryRevocationList(t *testing.T) {
	testRevocationList(t, NewMemoryRevocationList())
}

func TestMemoryRevocationList_Expiry(t *testing.T) {
	ctx := context.Background()
	list := NewMemoryRevocationList()
	now := time.Now()
	list.now = func() time.Time { return now }

	require.NoError(t, list.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, list.Revoke(ctx, "b", now.Add(time.Hour)))
	assert.Equal(t, 2, list.Len())

	now = now.Add(2 * time.Minute)
	revoked, err := list.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Equal(t, 1, list.Len())

	now = now.Add(2 * time.Hour)
	require.NoError(t, list.Revoke(ctx, "c", now.Add(time.Minute)))
	assert.Equal(t, 1, list.Len(), "expired entries are pruned on write")
}

func TestMemoryRevocationList_Closed(t *testing.T) {
	ctx := context.Background()
	list := NewMemoryRevocationList()
	require.NoError(t, list.Close())

	assert.ErrorIs(t, list.Revoke(ctx, "a", time.Now().Add(time.Hour)), ErrCacheClosed)
	_, err := list.IsRevoked(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.ErrorIs(t, list.Ping(ctx), ErrCacheClosed)
}

func TestCacheError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewCacheError("ping failed", false).WithError(cause)

	assert.Equal(t, "ping failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, err.IsRetryable())

	base := NewCacheError("base", true)
	_ = base.WithError(cause)
	assert.Nil(t, base.Underlying, "WithError must not mutate shared errors")
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_KEY_PREFIX", "")
	t.Setenv("REDIS_HOST", "cache.local")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DIAL_TIMEOUT", "2")

	cfg, err := NewConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "cache.local:6380", cfg.Address())
	assert.Equal(t, 2*time.Second, cfg.DialTimeout)
	assert.Equal(t, "academy:", cfg.KeyPrefix)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache.local:6380", opts.Addr)

	t.Setenv("REDIS_URL", "redis://:secret@other:7000/2")
	cfg, err = NewConfigFromEnv()
	require.NoError(t, err)
	opts, err = cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "other:7000", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	t.Setenv("REDIS_PORT", "not-a-port")
	_, err = NewConfigFromEnv()
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"1h30m", 90 * time.Minute, false},
		{"45", 45 * time.Second, false},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
