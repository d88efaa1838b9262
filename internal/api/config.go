package api

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/birbparty/birb-academy/internal/storage"
)

// Store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Fixture sources
const (
	FixturesEmbedded = "embedded"
	FixturesDir      = "dir"
	FixturesSpaces   = "spaces"
)

// Config holds the API configuration
type Config struct {
	// Server configuration
	Host            string
	Port            int
	RequestTimeout  int
	ShutdownTimeout int
	AllowOrigins    string
	LogFormat       string // "json" for structured request logs, "text" for an access log

	// Auth configuration
	JWTSecret    string
	TokenTTL     time.Duration
	SeedPassword string

	// Backends
	Store        string
	RedisEnabled bool
	NATSEnabled  bool

	// Fixture source for the catalog, seeding and /mock-data
	FixturesSource string
	FixturesDir    string
	FixturesSync   bool
	Spaces         storage.SpacesConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	requestTimeout, err := strconv.Atoi(getEnvOrDefault("REQUEST_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := strconv.Atoi(getEnvOrDefault("SHUTDOWN_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	tokenTTL, err := time.ParseDuration(getEnvOrDefault("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	redisEnabled, err := strconv.ParseBool(getEnvOrDefault("REDIS_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_ENABLED: %w", err)
	}

	natsEnabled, err := strconv.ParseBool(getEnvOrDefault("NATS_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS_ENABLED: %w", err)
	}

	fixturesSync, err := strconv.ParseBool(getEnvOrDefault("FIXTURES_SYNC", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid FIXTURES_SYNC: %w", err)
	}

	cfg := &Config{
		Host:            getEnvOrDefault("HOST", "0.0.0.0"),
		Port:            port,
		RequestTimeout:  requestTimeout,
		ShutdownTimeout: shutdownTimeout,
		AllowOrigins:    getEnvOrDefault("CORS_ALLOW_ORIGINS", "*"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "json"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenTTL:        tokenTTL,
		SeedPassword:    getEnvOrDefault("SEED_PASSWORD", "password123"),
		Store:           getEnvOrDefault("STORE", StoreMemory),
		RedisEnabled:    redisEnabled,
		NATSEnabled:     natsEnabled,
		FixturesSource:  getEnvOrDefault("FIXTURES_SOURCE", FixturesEmbedded),
		FixturesDir:     getEnvOrDefault("FIXTURES_DIR", "./sdk/fixtures"),
		FixturesSync:    fixturesSync,
		Spaces: storage.SpacesConfig{
			Endpoint:  getEnvOrDefault("SPACES_ENDPOINT", "https://nyc3.digitaloceanspaces.com"),
			Region:    getEnvOrDefault("SPACES_REGION", "us-east-1"),
			Bucket:    os.Getenv("SPACES_BUCKET"),
			AccessKey: os.Getenv("SPACES_ACCESS_KEY"),
			SecretKey: os.Getenv("SPACES_SECRET_KEY"),
			Prefix:    getEnvOrDefault("SPACES_PREFIX", "mock-data"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option values that cannot be caught while parsing.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("invalid STORE %q: expected %s or %s", c.Store, StoreMemory, StorePostgres)
	}

	switch c.FixturesSource {
	case FixturesEmbedded, FixturesDir:
	case FixturesSpaces:
		if c.Spaces.Bucket == "" {
			return fmt.Errorf("SPACES_BUCKET is required when FIXTURES_SOURCE=%s", FixturesSpaces)
		}
	default:
		return fmt.Errorf("invalid FIXTURES_SOURCE %q", c.FixturesSource)
	}

	if c.FixturesSync && c.FixturesSource != FixturesSpaces {
		return fmt.Errorf("FIXTURES_SYNC requires FIXTURES_SOURCE=%s", FixturesSpaces)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
