package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "REQUEST_TIMEOUT", "TOKEN_TTL", "STORE", "FIXTURES_SOURCE", "SPACES_PREFIX", "REDIS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, 30, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, FixturesEmbedded, cfg.FixturesSource)
	assert.Equal(t, "mock-data", cfg.Spaces.Prefix)
	assert.False(t, cfg.RedisEnabled)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("STORE", StorePostgres)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("FIXTURES_SOURCE", FixturesSpaces)
	t.Setenv("SPACES_BUCKET", "academy-fixtures")
	t.Setenv("FIXTURES_SYNC", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "academy-fixtures", cfg.Spaces.Bucket)
	assert.True(t, cfg.FixturesSync)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port", map[string]string{"PORT": "eighty"}, "PORT"},
		{"ttl", map[string]string{"TOKEN_TTL": "forever"}, "TOKEN_TTL"},
		{"negative ttl", map[string]string{"TOKEN_TTL": "-1h"}, "TOKEN_TTL"},
		{"store", map[string]string{"STORE": "mongo"}, "STORE"},
		{"fixtures", map[string]string{"FIXTURES_SOURCE": "ftp"}, "FIXTURES_SOURCE"},
		{"spaces bucket", map[string]string{"FIXTURES_SOURCE": FixturesSpaces}, "SPACES_BUCKET"},
		{"sync", map[string]string{"FIXTURES_SYNC": "true"}, "FIXTURES_SYNC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
