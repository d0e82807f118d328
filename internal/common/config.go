package common

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// AppName is used for config and data directory names.
const AppName = "expensectl"

// Config holds all configuration for expensectl
type Config struct {
	Environment string        `toml:"environment"`
	API         APIConfig     `toml:"api"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Metrics     MetricsConfig `toml:"metrics"`
}

// APIConfig holds the remote expense API configuration
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"` // requests per second, 0 disables limiting
	UserAgent string `toml:"user_agent"`
}

// GetTimeout parses and returns the timeout duration
func (c *APIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// StorageConfig holds the location of the persisted session database.
type StorageConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// MetricsConfig controls the optional prometheus textfile written on exit.
type MetricsConfig struct {
	TextfilePath string `toml:"textfile_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		API: APIConfig{
			BaseURL:   "http://localhost:5000",
			Timeout:   "30s",
			RateLimit: 10,
			UserAgent: AppName + "/" + Version,
		},
		Storage: StorageConfig{
			Path: filepath.Join(defaultDir(), "session.db"),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultDir(), "config.toml")
}

func defaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(dir, AppName)
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("EXPENSECTL_ENV"); env != "" {
		config.Environment = env
	}

	if v := os.Getenv("EXPENSECTL_API_URL"); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv("EXPENSECTL_API_TIMEOUT"); v != "" {
		config.API.Timeout = v
	}
	if v := os.Getenv("EXPENSECTL_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.API.RateLimit = n
		}
	}

	if v := os.Getenv("EXPENSECTL_DB_PATH"); v != "" {
		config.Storage.Path = v
	}

	if v := os.Getenv("EXPENSECTL_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("EXPENSECTL_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}

	if v := os.Getenv("EXPENSECTL_METRICS_TEXTFILE"); v != "" {
		config.Metrics.TextfilePath = v
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var problems []string

	if u, err := url.Parse(c.API.BaseURL); err != nil {
		problems = append(problems, fmt.Sprintf("invalid API base URL '%s': %v", c.API.BaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	} else if u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid API base URL '%s': missing host", c.API.BaseURL))
	}

	if c.API.Timeout != "" {
		if d, err := time.ParseDuration(c.API.Timeout); err != nil {
			problems = append(problems, fmt.Sprintf("invalid API timeout '%s': %v", c.API.Timeout, err))
		} else if d <= 0 {
			problems = append(problems, fmt.Sprintf("invalid API timeout %v: must be positive", d))
		}
	}

	if c.API.RateLimit < 0 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must not be negative", c.API.RateLimit))
	}

	if strings.TrimSpace(c.Storage.Path) == "" {
		problems = append(problems, "storage path cannot be empty")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'console' or 'json'", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}

	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
