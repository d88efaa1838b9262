package queue

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds queue configuration
type Config struct {
	// NATS connection settings
	URL      string
	Name     string
	User     string
	Password string

	// JetStream settings
	StreamName       string
	StreamMaxAge     time.Duration
	StreamMaxBytes   int64
	StreamMaxMsgs    int64
	StreamMaxMsgSize int32
	StreamReplicas   int

	// PublishTimeout bounds the wait for a JetStream ack
	PublishTimeout time.Duration

	// MaxDeliver caps redeliveries for consumers
	MaxDeliver int
}

// NewConfigFromEnv creates a new Config from environment variables
func NewConfigFromEnv() (*Config, error) {
	streamMaxBytes, err := strconv.ParseInt(getEnvOrDefault("NATS_STREAM_MAX_BYTES", "268435456"), 10, 64) // 256MB default
	if err != nil {
		return nil, fmt.Errorf("invalid NATS_STREAM_MAX_BYTES: %w", err)
	}

	streamMaxMsgs, err := strconv.ParseInt(getEnvOrDefault("NATS_STREAM_MAX_MSGS", "1000000"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid NATS_STREAM_MAX_MSGS: %w", err)
	}

	streamMaxMsgSize, err := strconv.ParseInt(getEnvOrDefault("NATS_STREAM_MAX_MSG_SIZE", "65536"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid NATS_STREAM_MAX_MSG_SIZE: %w", err)
	}

	streamReplicas, err := strconv.Atoi(getEnvOrDefault("NATS_STREAM_REPLICAS", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS_STREAM_REPLICAS: %w", err)
	}

	streamMaxAge, err := parseDuration(getEnvOrDefault("NATS_STREAM_MAX_AGE", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS_STREAM_MAX_AGE: %w", err)
	}

	publishTimeout, err := parseDuration(getEnvOrDefault("NATS_PUBLISH_TIMEOUT", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS_PUBLISH_TIMEOUT: %w", err)
	}

	maxDeliver, err := strconv.Atoi(getEnvOrDefault("NATS_MAX_DELIVER", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS_MAX_DELIVER: %w", err)
	}

	return &Config{
		URL:              getEnvOrDefault("NATS_URL", "nats://localhost:4222"),
		Name:             getEnvOrDefault("NATS_NAME", "birb-academy-api"),
		User:             os.Getenv("NATS_USER"),
		Password:         os.Getenv("NATS_PASSWORD"),
		StreamName:       getEnvOrDefault("NATS_STREAM_NAME", "ACADEMY_EVENTS"),
		StreamMaxAge:     streamMaxAge,
		StreamMaxBytes:   streamMaxBytes,
		StreamMaxMsgs:    streamMaxMsgs,
		StreamMaxMsgSize: int32(streamMaxMsgSize),
		StreamReplicas:   streamReplicas,
		PublishTimeout:   publishTimeout,
		MaxDeliver:       maxDeliver,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
