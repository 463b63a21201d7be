// Package helpers provides small utility functions shared across ragate packages.
package helpers

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetStringFromEnv returns the environment variable value or default if not set or empty.
//
// Example:
//
//	dsn := helpers.GetStringFromEnv("RAGATE_PGVECTOR_DSN", "postgres://localhost:5432/rag")
func GetStringFromEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntFromEnv returns the environment variable value as int or default if not set or invalid.
//
// Example:
//
//	maxRequests := helpers.GetIntFromEnv("RAGATE_RATE_LIMIT_MAX_REQUESTS", 60)
func GetIntFromEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetFloatFromEnv returns the environment variable value as float64 or default if not set or invalid.
//
// Example:
//
//	threshold := helpers.GetFloatFromEnv("RAGATE_SIMILARITY_THRESHOLD", 0.5)
func GetFloatFromEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetBoolFromEnv returns the environment variable value as bool or default if not set or invalid.
func GetBoolFromEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetDurationFromEnv returns the environment variable value as duration or default if not set or invalid.
//
// Example:
//
//	ttl := helpers.GetDurationFromEnv("RAGATE_CACHE_TTL", 5*time.Minute)
func GetDurationFromEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetListFromEnv splits a comma separated environment variable into trimmed,
// non-empty items. Returns defaultValue when the variable is unset or yields no items.
//
// Example:
//
//	keys := helpers.GetListFromEnv("RAGATE_TIMESTAMP_KEYS", []string{"timestamp"})
func GetListFromEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
