package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Acuity Scheduling credentials and client behavior
	AcuityUserID  string
	AcuityAPIKey  string
	AcuityBaseURL string
	AcuityTimeout time.Duration
	NotesFieldID  int

	// Catalog cache
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	CatalogCacheTTL time.Duration

	// Booking session lifecycle
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	// Booking records persistence (optional)
	DatabaseURL string

	// Per-IP rate limit on the booking API, requests/sec with burst
	BookingRateLimit int
	BookingRateBurst int

	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		AcuityUserID:  getEnv("ACUITY_USER_ID", ""),
		AcuityAPIKey:  getEnv("ACUITY_API_KEY", ""),
		AcuityBaseURL: getEnv("ACUITY_BASE_URL", ""),
		AcuityTimeout: getEnvAsDuration("ACUITY_TIMEOUT", 15*time.Second),
		NotesFieldID:  getEnvAsInt("ACUITY_NOTES_FIELD_ID", 1),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		CatalogCacheTTL: getEnvAsDuration("CATALOG_CACHE_TTL", 10*time.Minute),

		SessionTTL:           getEnvAsDuration("BOOKING_SESSION_TTL", 30*time.Minute),
		SessionSweepInterval: getEnvAsDuration("BOOKING_SESSION_SWEEP_INTERVAL", 5*time.Minute),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		BookingRateLimit: getEnvAsInt("BOOKING_RATE_LIMIT", 5),
		BookingRateBurst: getEnvAsInt("BOOKING_RATE_BURST", 10),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, trimming blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
