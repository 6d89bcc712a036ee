package httpgateway

import (
	"log/slog"
	"net/http"
)

// Option configures a Gateway using the functional options pattern.
type Option func(*Gateway)

// WithHTTPClient sets a custom HTTP client. Useful for timeouts, proxies,
// and test transports.
func WithHTTPClient(cl *http.Client) Option {
	return func(g *Gateway) {
		g.http = cl
	}
}

// WithLimits sets the response size limits.
func WithLimits(l Limits) Option {
	return func(g *Gateway) {
		g.limits = l
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}
