package logging

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/c0deZ3R0/go-cart-kit/errors"
)

func TestLogger(t *testing.T) {
	configs := []Config{
		{Level: "debug", Format: "text", Environment: EnvDevelopment, AddSource: true},
		{Level: "info", Format: "json", Environment: EnvProduction, AddSource: false},
	}

	for _, config := range configs {
		t.Run("Environment_"+config.Environment, func(t *testing.T) {
			logger := NewLogger(config)

			logger.Debug("Debug message", slog.String("key", "value"))
			logger.Info("Info message", slog.Int("count", 42))
			logger.Warn("Warning message", slog.Bool("enabled", true))

			testErr := errors.NewNetworkError(errors.OpFetch, fmt.Errorf("connection refused"))
			logger.LogError(context.Background(), testErr, "Operation failed")

			childLogger := logger.WithComponent(Component("engine"))
			childLogger.Info("Child logger message")

			err := logger.LogOperation(
				context.Background(),
				Operation("test_op"),
				Component("test_component"),
				func() error {
					time.Sleep(10 * time.Millisecond)
					return nil
				},
			)
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestLogOperationPropagatesError(t *testing.T) {
	logger := NewLogger(Config{Level: "error", Format: "text", Environment: EnvTest})

	wantErr := errors.NewServerError(errors.OpAdd, fmt.Errorf("status 500"))
	err := logger.LogOperation(context.Background(), Operation("add"), Component("gateway"), func() error {
		return wantErr
	})
	if err != wantErr {
		t.Errorf("LogOperation returned %v, want the operation error", err)
	}
}

func TestGetConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("ENVIRONMENT", "production")

	config := GetConfigFromEnv()
	if config.Level != "warn" {
		t.Errorf("Level = %q, want warn", config.Level)
	}
	if config.Format != "json" {
		t.Errorf("Format = %q, want json", config.Format)
	}
	if config.AddSource {
		t.Error("AddSource must be disabled in production")
	}
}
