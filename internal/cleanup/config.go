package cleanup

import (
	"os"
	"strconv"
	"time"

	"github.com/birbparty/birb-academy/internal/storage"
)

// LoadCleanupConfig loads cleanup configuration from environment variables
func LoadCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Retention:           getEnvDuration("ACTIVITY_RETENTION", 30*24*time.Hour),
		CleanupInterval:     getEnvDuration("CLEANUP_INTERVAL", time.Hour),
		BatchSize:           getEnvInt("CLEANUP_BATCH_SIZE", 500),
		DryRun:              getEnvBool("CLEANUP_DRY_RUN", false),
		ArchiveBeforeDelete: getEnvBool("CLEANUP_ARCHIVE", true),
	}
}

// LoadSpacesConfig loads the archive bucket settings. It shares the SPACES_*
// credentials with the fixture loader but uses its own prefix.
func LoadSpacesConfig() storage.SpacesConfig {
	return storage.SpacesConfig{
		Endpoint:  getEnvString("SPACES_ENDPOINT", "https://nyc3.digitaloceanspaces.com"),
		Region:    getEnvString("SPACES_REGION", "us-east-1"),
		Bucket:    getEnvString("SPACES_ARCHIVE_BUCKET", os.Getenv("SPACES_BUCKET")),
		AccessKey: getEnvString("SPACES_ACCESS_KEY", ""),
		SecretKey: getEnvString("SPACES_SECRET_KEY", ""),
		Prefix:    getEnvString("SPACES_ARCHIVE_PREFIX", "archives"),
	}
}

// getEnvString gets a string value from environment or returns default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment or returns default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets a positive integer from environment or returns default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration value from environment or returns default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
