package cli

import (
	"context"
	"net/http"

	"github.com/c0deZ3R0/go-cart-kit/cartkit"
	"github.com/c0deZ3R0/go-cart-kit/config"
	"github.com/c0deZ3R0/go-cart-kit/logging"
	"github.com/c0deZ3R0/go-cart-kit/session"
	"github.com/c0deZ3R0/go-cart-kit/storage/sqlitecache"
	"github.com/c0deZ3R0/go-cart-kit/transport/httpgateway"
)

// stack is a fully wired engine plus the session source commands use to
// install the credential.
type stack struct {
	engine   *cartkit.Engine
	sessions *session.Source
}

// buildStack wires gateway, cache, session source and engine from the
// loaded configuration. The caller owns the returned stack and must call
// close.
func buildStack(cfg config.Config) (*stack, error) {
	logger := logging.Default().WithComponent("cartctl")

	sessions := session.NewSource()
	if cfg.Token != "" {
		sessions.SetToken(cfg.Token)
	}

	gateway := httpgateway.New(cfg.ServiceURL,
		func() string { return sessions.Current().Token },
		httpgateway.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		httpgateway.WithLogger(logger.Logger),
	)

	opts := []cartkit.Option{
		cartkit.WithRefreshInterval(cfg.RefreshInterval),
		cartkit.WithTimeout(cfg.RequestTimeout),
		cartkit.WithLogger(logger.Logger),
	}

	if cfg.CachePath != "" {
		cache, err := sqlitecache.NewWithDataSource(cfg.CachePath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "opening cart cache", err)
		}
		opts = append(opts, cartkit.WithCache(cache))
	}

	engine, err := cartkit.New(gateway, sessions, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "building engine", err)
	}

	return &stack{engine: engine, sessions: sessions}, nil
}

func (s *stack) start(ctx context.Context) error {
	return s.engine.Start(ctx)
}

func (s *stack) close() {
	_ = s.engine.Close()
}
