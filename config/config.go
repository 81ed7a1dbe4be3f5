package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the bendy backend service
type Config struct {
	// Server configuration
	Port string
	Host string

	// Report store backend: "mysql" or "firestore"
	StoreBackend string

	// MySQL configuration
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Firestore configuration
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirestoreCollection      string

	// Store call budget for a single read or write
	StoreTimeout time.Duration

	// Submission cooldown
	RateLimitPath     string
	RateLimitCooldown time.Duration

	// Transport-level guard on the submission endpoint
	SubmitRateLimitPerMinute int

	// Timezone used for calendar-day bucketing of report history
	ReportTimezone string

	// Conditions proxies
	MountainConditionsURL string
	RoadConditionsURL     string
	ConditionsCacheTTL    time.Duration
	UpstreamTimeout       time.Duration

	// CORS
	AllowedOrigins string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),
		Host: getEnv("HOST", "0.0.0.0"),

		StoreBackend: getEnv("STORE_BACKEND", "mysql"),

		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBName:     getEnv("DB_NAME", "bendy"),

		FirestoreProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreCredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),
		FirestoreCollection:      getEnv("FIRESTORE_COLLECTION", "crowdReports"),

		StoreTimeout: getDurationEnv("STORE_TIMEOUT", 10*time.Second),

		RateLimitPath:     getEnv("RATE_LIMIT_PATH", "bendy_rate_limits.json"),
		RateLimitCooldown: getDurationEnv("RATE_LIMIT_COOLDOWN", 60*time.Minute),

		SubmitRateLimitPerMinute: getIntEnv("SUBMIT_RATE_LIMIT_PER_MINUTE", 30),

		ReportTimezone: getEnv("REPORT_TIMEZONE", "America/Los_Angeles"),

		MountainConditionsURL: getEnv("MOUNTAIN_CONDITIONS_URL", "https://www.mtbachelor.com/api/conditions"),
		RoadConditionsURL:     getEnv("ROAD_CONDITIONS_URL", "https://api.tripcheck.com/roads"),
		ConditionsCacheTTL:    getDurationEnv("CONDITIONS_CACHE_TTL", 5*time.Minute),
		UpstreamTimeout:       getDurationEnv("UPSTREAM_TIMEOUT", 10*time.Second),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
