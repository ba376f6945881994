package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // STATS_TIMEZONE must resolve on hosts without a zone database

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port            string
	AllowedOrigins  []string
	LogLevel        string
	DatabaseURL     string
	DatabaseReadURL string // Read replica URL for SELECT queries
	RedisURL        string
	Environment     string
	JWTSecret       string

	// Statistics
	StatsTimezone    *time.Location
	StatsAdminTTL    time.Duration
	StatsBusinessTTL time.Duration
	OverviewTTL      time.Duration
	QueryTimeout     time.Duration
	RequestTimeout   time.Duration
	CountRequests    bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("STATS_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		AllowedOrigins:   parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseReadURL:  getEnv("DATABASE_READ_URL", getEnv("DATABASE_URL", "")), // Falls back to write DB if not set
		RedisURL:         getEnv("REDIS_URL", ""),
		Environment:      getEnv("ENVIRONMENT", "production"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		StatsTimezone:    loc,
		StatsAdminTTL:    getDurationEnv("STATS_ADMIN_TTL", 5*time.Minute),
		StatsBusinessTTL: getDurationEnv("STATS_BUSINESS_TTL", time.Minute),
		OverviewTTL:      getDurationEnv("OVERVIEW_TTL", time.Minute),
		QueryTimeout:     getDurationEnv("QUERY_TIMEOUT", 10*time.Second),
		RequestTimeout:   getDurationEnv("REQUEST_TIMEOUT", 60*time.Second),
		CountRequests:    getBoolEnv("COUNT_REQUESTS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	for name, ttl := range map[string]time.Duration{
		"STATS_ADMIN_TTL":    c.StatsAdminTTL,
		"STATS_BUSINESS_TTL": c.StatsBusinessTTL,
		"OVERVIEW_TTL":       c.OverviewTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv accepts Go durations ("90s", "5m") or a bare number of
// seconds
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
