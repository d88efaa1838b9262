package worker

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds worker configuration
type Config struct {
	// Worker identification
	WorkerID   string
	WorkerName string

	// Durable is the JetStream consumer name shared by every worker replica
	Durable string

	// Processing settings
	BatchSize     int
	BatchTimeout  time.Duration
	BatchDeadline time.Duration

	// Retry settings for fetch failures
	RetryBackoff    time.Duration
	RetryMultiplier float64
	MaxRetryBackoff time.Duration

	// Monitoring
	MetricsInterval time.Duration
	HealthCheckPort int
}

// NewConfigFromEnv creates a new Config from environment variables
func NewConfigFromEnv() (*Config, error) {
	batchSize, err := strconv.Atoi(getEnvOrDefault("WORKER_BATCH_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_BATCH_SIZE: %w", err)
	}

	batchTimeout, err := parseDuration(getEnvOrDefault("WORKER_BATCH_TIMEOUT", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_BATCH_TIMEOUT: %w", err)
	}

	batchDeadline, err := parseDuration(getEnvOrDefault("WORKER_BATCH_DEADLINE", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_BATCH_DEADLINE: %w", err)
	}

	retryBackoff, err := parseDuration(getEnvOrDefault("WORKER_RETRY_BACKOFF", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_RETRY_BACKOFF: %w", err)
	}

	retryMultiplier, err := strconv.ParseFloat(getEnvOrDefault("WORKER_RETRY_MULTIPLIER", "2.0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_RETRY_MULTIPLIER: %w", err)
	}

	maxRetryBackoff, err := parseDuration(getEnvOrDefault("WORKER_MAX_RETRY_BACKOFF", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_MAX_RETRY_BACKOFF: %w", err)
	}

	metricsInterval, err := parseDuration(getEnvOrDefault("WORKER_METRICS_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_METRICS_INTERVAL: %w", err)
	}

	healthCheckPort, err := strconv.Atoi(getEnvOrDefault("WORKER_HEALTH_PORT", "8081"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_HEALTH_PORT: %w", err)
	}

	// Generate worker ID if not provided
	workerID := getEnvOrDefault("WORKER_ID", generateWorkerID())

	cfg := &Config{
		WorkerID:        workerID,
		WorkerName:      getEnvOrDefault("WORKER_NAME", "birb-academy-worker-"+workerID),
		Durable:         getEnvOrDefault("WORKER_DURABLE", "academy-activity"),
		BatchSize:       batchSize,
		BatchTimeout:    batchTimeout,
		BatchDeadline:   batchDeadline,
		RetryBackoff:    retryBackoff,
		RetryMultiplier: retryMultiplier,
		MaxRetryBackoff: maxRetryBackoff,
		MetricsInterval: metricsInterval,
		HealthCheckPort: healthCheckPort,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the processing loop cannot run with.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.BatchTimeout <= 0 || c.BatchDeadline <= 0 {
		return fmt.Errorf("WORKER_BATCH_TIMEOUT and WORKER_BATCH_DEADLINE must be positive")
	}
	if c.MetricsInterval <= 0 {
		return fmt.Errorf("WORKER_METRICS_INTERVAL must be positive")
	}
	if c.RetryMultiplier < 1 {
		return fmt.Errorf("WORKER_RETRY_MULTIPLIER must be at least 1")
	}
	if c.Durable == "" {
		return fmt.Errorf("WORKER_DURABLE must not be empty")
	}
	return nil
}

// nextBackoff grows d by the retry multiplier, capped at MaxRetryBackoff.
func (c *Config) nextBackoff(d time.Duration) time.Duration {
	next := time.Duration(float64(d) * c.RetryMultiplier)
	if c.MaxRetryBackoff > 0 && next > c.MaxRetryBackoff {
		return c.MaxRetryBackoff
	}
	return next
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

func generateWorkerID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}
