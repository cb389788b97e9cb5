package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/platinummonkey/permcache/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Cache configuration
	Cache CacheConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// CacheConfig holds permission cache configuration
type CacheConfig struct {
	// TTL bounds how long a cached resolution may be served
	TTL time.Duration

	// IndexSweepSchedule is a cron expression for pruning stale dependency
	// index registrations; empty disables the sweep.
	IndexSweepSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("PERMCACHE_HOST", "0.0.0.0"),
			Port:            getEnv("PERMCACHE_PORT", "8080"),
			ReadTimeout:     getEnvDuration("PERMCACHE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("PERMCACHE_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("PERMCACHE_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("PERMCACHE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:          getEnv("PERMCACHE_POSTGRES_URL", ""),
			MaxOpenConns: getEnvInt("PERMCACHE_POSTGRES_MAX_CONNS", 25),
			MaxIdleConns: getEnvInt("PERMCACHE_POSTGRES_IDLE_CONNS", 5),
		},
		Cache: CacheConfig{
			TTL:                getEnvDuration("PERMCACHE_CACHE_TTL", 5*time.Minute),
			IndexSweepSchedule: getEnv("PERMCACHE_INDEX_SWEEP_SCHEDULE", "@every 1h"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("PERMCACHE_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("PERMCACHE_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("PERMCACHE_POSTGRES_URL is required")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("PERMCACHE_CACHE_TTL must be positive")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
