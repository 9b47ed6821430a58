package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	DB     DatabaseConfig
	Redis  RedisConfig
	Cache  CacheConfig
	Ingest IngestConfig
	Worker WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CacheConfig contains TTLs for the read-through cache.
type CacheConfig struct {
	ListingTTL time.Duration
	StatsTTL   time.Duration
}

// IngestConfig contains limits applied to the ingestion endpoint.
type IngestConfig struct {
	// RateLimitPerMinute caps batches per client IP per minute. 0 disables.
	RateLimitPerMinute int
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	// StatsRefreshInterval controls the cache-warming stats worker. 0 disables.
	StatsRefreshInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Ingest limits
	cfg.Ingest = IngestConfig{
		RateLimitPerMinute: getEnvInt("INGEST_RATE_LIMIT", 300),
	}

	// Cache TTLs
	var err error
	if cfg.Cache.ListingTTL, err = parseDurationEnv("CACHE_LISTING_TTL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid CACHE_LISTING_TTL: %w", err)
	}
	if cfg.Cache.StatsTTL, err = parseDurationEnv("CACHE_STATS_TTL", "2m"); err != nil {
		return nil, fmt.Errorf("invalid CACHE_STATS_TTL: %w", err)
	}

	// Workers (durations)
	if cfg.Worker.StatsRefreshInterval, err = parseDurationEnv("STATS_REFRESH_INTERVAL", "2m"); err != nil {
		return nil, fmt.Errorf("invalid STATS_REFRESH_INTERVAL: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
