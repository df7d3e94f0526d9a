// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/zapponejosh/hijri-calendar/internal/hijri"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Database
	DatabasePath string // Path to SQLite file

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Calendar derivation
	CalendarMode       string  // observed, fixed
	LeapDayThreshold   float64 // days of Dhul Hijjah drift that still earn a leap day
	IntercalationSplit int     // last lookahead position placing the blue moon at year start

	// API limits
	CacheSize     int // derived calendars kept in memory
	MaxRangeYears int // widest start..end range a request may ask for
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	// This is a no-op in production where env vars are set directly
	_ = godotenv.Load()

	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	// Database
	cfg.DatabasePath = getEnv("DATABASE_PATH", "./data/hijri.db")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	// Calendar
	cfg.CalendarMode = strings.ToLower(getEnv("CALENDAR_MODE", string(hijri.ModeObserved)))
	cfg.LeapDayThreshold = getEnvFloat("LEAP_DAY_THRESHOLD", hijri.DefaultLeapDayThreshold)
	cfg.IntercalationSplit = getEnvInt("INTERCALATION_SPLIT", hijri.DefaultIntercalationSplit)

	// API
	cfg.CacheSize = getEnvInt("CACHE_SIZE", 128)
	cfg.MaxRangeYears = getEnvInt("MAX_RANGE_YEARS", 500)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	// Validate port range
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	// Validate environment
	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	// Validate database path is set
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}

	// Validate log level
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	// Validate log format
	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if _, err := hijri.ParseMode(c.CalendarMode); err != nil {
		errs = append(errs, fmt.Errorf("CALENDAR_MODE must be one of: observed, fixed; got %q", c.CalendarMode))
	}

	if c.LeapDayThreshold < 0 || c.LeapDayThreshold > 0.5 {
		errs = append(errs, fmt.Errorf("LEAP_DAY_THRESHOLD must be between 0 and 0.5, got %g", c.LeapDayThreshold))
	}

	if c.IntercalationSplit < 1 || c.IntercalationSplit > 12 {
		errs = append(errs, fmt.Errorf("INTERCALATION_SPLIT must be between 1 and 12, got %d", c.IntercalationSplit))
	}

	if c.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("CACHE_SIZE must be at least 1, got %d", c.CacheSize))
	}

	if c.MaxRangeYears < 1 {
		errs = append(errs, fmt.Errorf("MAX_RANGE_YEARS must be at least 1, got %d", c.MaxRangeYears))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// CalendarOptions returns derivation options built from the calendar
// settings. Remaining fields keep their defaults.
func (c *Config) CalendarOptions() hijri.Options {
	opts := hijri.DefaultOptions()
	if mode, err := hijri.ParseMode(c.CalendarMode); err == nil {
		opts.Mode = mode
	}
	opts.LeapDayThreshold = c.LeapDayThreshold
	opts.IntercalationSplit = c.IntercalationSplit
	return opts
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat reads an environment variable as a float with a default fallback.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
