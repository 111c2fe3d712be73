package config

import (
	"os"
	"strconv"

	"goposthoc/domain/adjust"
	"goposthoc/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Stats    StatsConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds database connection settings. Persistence is
// optional: an empty URL disables the run repository.
type DatabaseConfig struct {
	URL string
}

// StatsConfig holds defaults and guardrails for the statistical engines
type StatsConfig struct {
	AdjustMethod  adjust.Method // family correction applied by sweeps
	Alpha         float64       // significance level for summaries
	MaxExactN     int           // largest n served by the exact signed-rank table
	MaxVariables  int           // sweep guardrail
	MaxPairs      int           // sweep guardrail
	MaxConcurrent int64         // concurrent pairwise computations
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	method, err := adjust.ParseMethod(getEnvOrDefault("ADJUST_METHOD", string(adjust.DefaultMethod)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load stats configuration")
	}

	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Stats: StatsConfig{
			AdjustMethod:  method,
			Alpha:         getEnvFloatOrDefault("ALPHA", adjust.DefaultAlpha),
			MaxExactN:     getEnvIntOrDefault("MAX_EXACT_N", 25),
			MaxVariables:  getEnvIntOrDefault("MAX_VARIABLES", 2000),
			MaxPairs:      getEnvIntOrDefault("MAX_PAIRS", 500000),
			MaxConcurrent: int64(getEnvIntOrDefault("MAX_CONCURRENT", 8)),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Stats.Alpha <= 0 || config.Stats.Alpha >= 1 {
		return errors.ConfigInvalid("ALPHA must lie strictly between 0 and 1")
	}
	if config.Stats.MaxExactN < 1 {
		return errors.ConfigInvalid("MAX_EXACT_N must be at least 1")
	}
	if config.Stats.MaxConcurrent < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
