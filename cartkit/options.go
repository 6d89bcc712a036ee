package cartkit

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultRefreshInterval matches the storefront's 10 second count poll.
	DefaultRefreshInterval = 10 * time.Second

	// DefaultTimeout bounds every gateway and cache operation.
	DefaultTimeout = 15 * time.Second
)

// Option configures an Engine using the functional options pattern.
type Option func(*Engine) error

// WithCache sets the durable snapshot cache. Without it the engine uses an
// in-memory cache that does not survive restarts.
func WithCache(c Cache) Option {
	return func(e *Engine) error {
		if c == nil {
			return fmt.Errorf("cache cannot be nil")
		}
		e.cache = c
		return nil
	}
}

// WithRefreshInterval sets the periodic count refresh interval. Zero or
// negative disables the background refresh entirely.
func WithRefreshInterval(d time.Duration) Option {
	return func(e *Engine) error {
		e.refreshInterval = d
		return nil
	}
}

// WithTimeout bounds individual gateway and cache operations.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		e.timeout = d
		return nil
	}
}

// WithClock substitutes the time source driving the periodic refresh.
func WithClock(c Clock) Option {
	return func(e *Engine) error {
		if c == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		e.clock = c
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		e.logger = logger
		return nil
	}
}
