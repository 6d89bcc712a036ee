// Package config loads cartctl configuration from a YAML file with
// environment variable overrides. Environment always wins over the file,
// and the file always wins over the built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c0deZ3R0/go-cart-kit/logging"
)

// Environment variable names recognized by FromEnv.
const (
	EnvServiceURL      = "CART_SERVICE_URL"
	EnvToken           = "CART_TOKEN"
	EnvCachePath       = "CART_CACHE_PATH"
	EnvRefreshInterval = "CART_REFRESH_INTERVAL"
	EnvRequestTimeout  = "CART_REQUEST_TIMEOUT"
)

// Config holds everything cartctl needs to talk to a cart service.
type Config struct {
	// ServiceURL is the base URL of the cart service, e.g.
	// "https://shop.example.com/api". Required.
	ServiceURL string `yaml:"service_url"`

	// Token is the bearer credential. Usually supplied via flag or the
	// CART_TOKEN environment variable rather than the file.
	Token string `yaml:"token,omitempty"`

	// CachePath is the SQLite file holding the durable cart snapshot.
	// Empty means an in-memory cache that does not survive the process.
	CachePath string `yaml:"cache_path,omitempty"`

	// RefreshInterval is the period of the background count refresh.
	// Zero or negative disables it.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// RequestTimeout bounds each individual request to the service.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Logging configures the structured logger.
	Logging logging.Config `yaml:"logging"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		RefreshInterval: 10 * time.Second,
		RequestTimeout:  15 * time.Second,
		Logging:         logging.DefaultConfig,
	}
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result. An empty path skips the file and uses defaults
// plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv returns the default configuration with environment overrides
// applied, without touching the filesystem.
func FromEnv() (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvServiceURL); v != "" {
		c.ServiceURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvCachePath); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv(EnvRefreshInterval); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvRefreshInterval, v, err)
		}
		c.RefreshInterval = d
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvRequestTimeout, v, err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Logging.Environment = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_ADD_SOURCE"); v != "" {
		c.Logging.AddSource = strings.ToLower(v) == "true"
	}
	return nil
}

// parseDuration accepts Go duration strings and bare integers, which are
// treated as seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("service_url is required (set it in the config file or %s)", EnvServiceURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
