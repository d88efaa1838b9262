package telemetry

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config controls logging, metrics and tracing for one academy binary.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	LogLevel       string

	// OTLP export
	OTLPEndpoint    string
	SamplingRate    float64
	MetricsInterval time.Duration

	// Local runs write JSON lines instead of talking to a collector.
	ExportToFile    bool
	MetricsFilePath string
	TracesFilePath  string
	LogsFilePath    string

	EnableTracing bool
	EnableMetrics bool
}

// NewConfigFromEnv reads the telemetry settings for a binary whose service
// name defaults to defaultService. TELEMETRY_ENABLED=false turns off both
// exporters and leaves only structured logging.
func NewConfigFromEnv(defaultService string) (*Config, error) {
	enabled, err := parseBool("TELEMETRY_ENABLED", true)
	if err != nil {
		return nil, err
	}
	tracing, err := parseBool("ENABLE_TRACING", true)
	if err != nil {
		return nil, err
	}
	metrics, err := parseBool("ENABLE_METRICS", true)
	if err != nil {
		return nil, err
	}
	toFile, err := parseBool("OTEL_EXPORT_TO_FILE", false)
	if err != nil {
		return nil, err
	}

	samplingRate, err := strconv.ParseFloat(getEnvOrDefault("OTEL_SAMPLING_RATE", "1.0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_SAMPLING_RATE: %w", err)
	}
	interval, err := parseInterval(getEnvOrDefault("METRICS_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_INTERVAL: %w", err)
	}

	cfg := &Config{
		ServiceName:     getEnvOrDefault("OTEL_SERVICE_NAME", defaultService),
		ServiceVersion:  getEnvOrDefault("SERVICE_VERSION", "unknown"),
		Environment:     getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		SamplingRate:    samplingRate,
		MetricsInterval: interval,
		EnableTracing:   enabled && tracing,
		EnableMetrics:   enabled && metrics,
	}

	if toFile {
		cfg.ExportToFile = true
		cfg.MetricsFilePath = getEnvOrDefault("OTEL_METRICS_FILE_PATH", "/tmp/otel/metrics.json")
		cfg.TracesFilePath = getEnvOrDefault("OTEL_TRACES_FILE_PATH", "/tmp/otel/traces.json")
		cfg.LogsFilePath = getEnvOrDefault("OTEL_LOGS_FILE_PATH", "/tmp/otel/logs.json")
	} else {
		cfg.OTLPEndpoint = getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings Init relies on.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling rate must be between 0 and 1, got %v", c.SamplingRate)
	}
	if c.EnableMetrics && c.MetricsInterval <= 0 {
		return fmt.Errorf("metrics interval must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

// Exporting reports whether any OTel exporter will be installed.
func (c *Config) Exporting() bool {
	return c.EnableTracing || c.EnableMetrics
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// parseInterval accepts a duration ("15s") or a bare number of seconds.
func parseInterval(value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(value)
}
