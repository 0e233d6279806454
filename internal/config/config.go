// Package config loads application settings from an optional YAML file
// overlaid by environment variables. Environment always wins.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP server
	Port string

	// Backend selection: "rest" talks to the remote API, "memory" runs
	// against the seeded in-process store.
	DataBackend string

	// REST backend
	BackendBaseURL string
	RequestTimeout time.Duration

	// Reporting
	FYStartMonth int

	// Category cache
	CacheSize     int
	CacheTTL      time.Duration
	SweepInterval time.Duration

	// Rate limiting for mutating requests, per client per minute
	RateLimitPerMinute int

	// Logging: debug, info, warn, error
	LogLevel string
}

// fileConfig mirrors Config for the optional YAML settings file. Pointer
// fields distinguish "absent" from zero.
type fileConfig struct {
	Port               *string        `yaml:"port"`
	DataBackend        *string        `yaml:"data_backend"`
	BackendBaseURL     *string        `yaml:"backend_base_url"`
	RequestTimeout     *time.Duration `yaml:"request_timeout"`
	FYStartMonth       *int           `yaml:"fy_start_month"`
	CacheSize          *int           `yaml:"cache_size"`
	CacheTTL           *time.Duration `yaml:"cache_ttl"`
	SweepInterval      *time.Duration `yaml:"sweep_interval"`
	RateLimitPerMinute *int           `yaml:"rate_limit_per_minute"`
	LogLevel           *string        `yaml:"log_level"`
}

// Load builds the configuration: defaults, then the YAML file named by
// FINVIEW_CONFIG (if set), then environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               "8080",
		DataBackend:        "memory",
		BackendBaseURL:     "http://localhost:8000",
		RequestTimeout:     30 * time.Second,
		FYStartMonth:       4,
		CacheSize:          128,
		CacheTTL:           5 * time.Minute,
		SweepInterval:      10 * time.Minute,
		RateLimitPerMinute: 60,
		LogLevel:           "info",
	}

	if path := os.Getenv("FINVIEW_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DataBackend = getEnv("DATA_BACKEND", cfg.DataBackend)
	cfg.BackendBaseURL = getEnv("BACKEND_BASE_URL", cfg.BackendBaseURL)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.FYStartMonth = getEnvInt("FY_START_MONTH", cfg.FYStartMonth)
	cfg.CacheSize = getEnvInt("CACHE_SIZE", cfg.CacheSize)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.SweepInterval = getEnvDuration("SWEEP_INTERVAL", cfg.SweepInterval)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.Port != nil {
		c.Port = *fc.Port
	}
	if fc.DataBackend != nil {
		c.DataBackend = *fc.DataBackend
	}
	if fc.BackendBaseURL != nil {
		c.BackendBaseURL = *fc.BackendBaseURL
	}
	if fc.RequestTimeout != nil {
		c.RequestTimeout = *fc.RequestTimeout
	}
	if fc.FYStartMonth != nil {
		c.FYStartMonth = *fc.FYStartMonth
	}
	if fc.CacheSize != nil {
		c.CacheSize = *fc.CacheSize
	}
	if fc.CacheTTL != nil {
		c.CacheTTL = *fc.CacheTTL
	}
	if fc.SweepInterval != nil {
		c.SweepInterval = *fc.SweepInterval
	}
	if fc.RateLimitPerMinute != nil {
		c.RateLimitPerMinute = *fc.RateLimitPerMinute
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	return nil
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "rest", "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [rest memory]", c.DataBackend))
	}

	if c.DataBackend == "rest" {
		if c.BackendBaseURL == "" {
			errs = append(errs, "backend base URL is required when using the rest backend")
		} else if u, err := url.Parse(c.BackendBaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid backend base URL '%s': %v", c.BackendBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid backend base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if c.RequestTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	}

	if c.FYStartMonth < 1 || c.FYStartMonth > 12 {
		errs = append(errs, fmt.Sprintf("invalid fiscal year start month %d: must be between 1 and 12", c.FYStartMonth))
	}

	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.SweepInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid sweep interval %v: must be at least 1 second", c.SweepInterval))
	}

	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
