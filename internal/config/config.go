package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL       string
	Port              string
	JWTSecret         string
	TokenTTL          time.Duration
	AdminPasswordHash string
	SourcesFile       string
	ScrapeCron        string
	Parallelism       int
	SourceDelay       time.Duration
	HTTPTimeout       time.Duration
	PageTimeout       time.Duration
	RateLimitAdmin    RateLimitConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:          parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		SourcesFile:       getEnv("SOURCES_FILE", "sources.yaml"),
		ScrapeCron:        getEnv("SCRAPE_CRON", "@every 12h"),
		SourceDelay:       parseDuration(getEnv("SOURCE_DELAY", "1s"), time.Second),
		HTTPTimeout:       parseDuration(getEnv("HTTP_TIMEOUT", "30s"), 30*time.Second),
		PageTimeout:       parseDuration(getEnv("PAGE_TIMEOUT", "90s"), 90*time.Second),
	}

	parallelism, err := parsePositiveInt(getEnv("INGEST_PARALLELISM", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_PARALLELISM value: %w", err)
	}
	cfg.Parallelism = parallelism

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_ADMIN", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_ADMIN value: %w", err)
	}
	cfg.RateLimitAdmin = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func parsePositiveInt(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback
	}
	return d
}
