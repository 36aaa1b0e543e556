// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the CLI and engine need to start.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string

	// RedisAddr, RedisPassword and RedisDB configure the change feed.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// MetricsAddr is the Prometheus listen address; empty disables it.
	MetricsAddr string

	// TokenSecret signs identity tokens; TokenTTL bounds their validity.
	TokenSecret string
	TokenTTL    time.Duration
}

// Load reads configuration from the environment. A missing .env file
// is fine; explicit environment variables always win over defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return Config{
		DBPath:        getEnv("DB_PATH", "./data/tabshare.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		MetricsAddr:   getEnv("METRICS_ADDR", ""),
		TokenSecret:   getEnv("TOKEN_SECRET", "dev-only-insecure-secret"),
		TokenTTL:      getEnvDuration("TOKEN_TTL", 30*24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using fallback", "key", key, "value", value)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using fallback", "key", key, "value", value)
		return fallback
	}
	return d
}
