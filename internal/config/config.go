package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for domain-lists
type Config struct {
	Server     ServerConfig
	Lists      ListsConfig
	Mapping    MappingConfig
	Pagination PaginationConfig
	Redis      RedisConfig
	Analytics  AnalyticsConfig
	Sessions   SessionsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// ListsConfig holds the static list host configuration. BaseURL is the one
// place list files are fetched from; there is no fallback.
type ListsConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// MappingConfig points at an optional YAML file replacing the built-in
// selection tables
type MappingConfig struct {
	File string
}

// PaginationConfig holds page size limits and the window radius
type PaginationConfig struct {
	Radius       int
	DefaultLimit int
	MaxLimit     int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
}

// AnalyticsConfig holds event reporting configuration
type AnalyticsConfig struct {
	Stream       string
	StreamMaxLen int64
	Buffer       int
}

// SessionsConfig holds live board session configuration
type SessionsConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// Load loads configuration from environment variables, reading a .env file
// first when one is present
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Lists: ListsConfig{
			BaseURL:        getEnv("LISTS_BASE_URL", "http://localhost:8000/Lists"),
			RequestTimeout: getEnvAsDuration("LISTS_REQUEST_TIMEOUT", 10*time.Second),
			MaxBodyBytes:   int64(getEnvAsInt("LISTS_MAX_BODY_BYTES", 32<<20)),
		},
		Mapping: MappingConfig{
			File: getEnv("MAPPING_FILE", ""),
		},
		Pagination: PaginationConfig{
			Radius:       getEnvAsInt("PAGINATION_RADIUS", 2),
			DefaultLimit: getEnvAsInt("PAGINATION_DEFAULT_LIMIT", 25),
			MaxLimit:     getEnvAsInt("PAGINATION_MAX_LIMIT", 500),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Analytics: AnalyticsConfig{
			Stream:       getEnv("ANALYTICS_STREAM", "domain-lists:events"),
			StreamMaxLen: int64(getEnvAsInt("ANALYTICS_STREAM_MAX_LEN", 100000)),
			Buffer:       getEnvAsInt("ANALYTICS_BUFFER", 256),
		},
		Sessions: SessionsConfig{
			IdleTimeout:   getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Lists.BaseURL == "" {
		return fmt.Errorf("lists base URL is required")
	}
	u, err := url.Parse(c.Lists.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid lists base URL: %q", c.Lists.BaseURL)
	}

	if c.Pagination.Radius < 0 {
		return fmt.Errorf("pagination radius must not be negative: %d", c.Pagination.Radius)
	}
	if c.Pagination.MaxLimit < 1 {
		return fmt.Errorf("invalid max page size: %d", c.Pagination.MaxLimit)
	}
	if c.Pagination.DefaultLimit < 1 || c.Pagination.DefaultLimit > c.Pagination.MaxLimit {
		return fmt.Errorf("invalid default page size: %d", c.Pagination.DefaultLimit)
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
