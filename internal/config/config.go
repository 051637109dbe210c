package config

import (
	"os"
	"strconv"
	"time"

	"datalens/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Database  DatabaseConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// AIConfig holds AI/LLM related settings. The chat assistant is disabled when
// OpenAIKey is empty; everything else keeps working.
type AIConfig struct {
	OpenAIKey   string
	OpenAIModel string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DatabaseConfig holds optional settings for the SQL dataset loader
type DatabaseConfig struct {
	URL string
}

// ProfilingConfig holds profiling engine settings
type ProfilingConfig struct {
	SampleSeed    int64 // seed for pattern/regex sampling; fixed for reproducible profiles
	SampleSize    int   // max values sampled for pattern detection
	MaxConcurrent int64 // concurrent profiling jobs allowed by the API
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("SERVER_PORT", "8080"),
		},
		AI: AIConfig{
			OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
			OpenAIModel: getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:     os.Getenv("OPENAI_BASE_URL"),
			MaxTokens:   getEnvIntOrDefault("AI_MAX_TOKENS", 1024),
			Temperature: getEnvFloatOrDefault("AI_TEMPERATURE", 0.2),
			Timeout:     time.Duration(getEnvIntOrDefault("AI_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Profiling: ProfilingConfig{
			SampleSeed:    int64(getEnvIntOrDefault("PROFILE_SAMPLE_SEED", 42)),
			SampleSize:    getEnvIntOrDefault("PROFILE_SAMPLE_SIZE", 500),
			MaxConcurrent: int64(getEnvIntOrDefault("PROFILE_MAX_CONCURRENT", 4)),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validate(c *Config) error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("SERVER_PORT cannot be empty")
	}
	if c.Profiling.SampleSize <= 0 {
		return errors.ConfigInvalid("PROFILE_SAMPLE_SIZE must be positive")
	}
	if c.Profiling.MaxConcurrent <= 0 {
		return errors.ConfigInvalid("PROFILE_MAX_CONCURRENT must be positive")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
