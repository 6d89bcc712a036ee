// Package httpgateway implements the remote cart gateway over HTTP.
//
// The gateway is a stateless request layer: it turns cart operations into
// authenticated calls against the cart service and classifies failures into
// the error codes the engine acts on. Retry and fallback policy belong to
// the engine, never here.
package httpgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/c0deZ3R0/go-cart-kit/cart"
	cartErrors "github.com/c0deZ3R0/go-cart-kit/errors"
	"github.com/c0deZ3R0/go-cart-kit/logging"
)

// TokenProvider returns the current bearer credential, or "" when the
// session is anonymous. It is consulted at request time so a token rotated
// by the session layer is picked up without rebuilding the gateway.
type TokenProvider func() string

// Limits defines response size limits for the gateway.
type Limits struct {
	// MaxBodyBytes caps how much of a response body is read. Zero means
	// the default of 1 MiB; cart payloads are small.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 1 << 20

// Gateway issues cart operations against a remote cart service.
type Gateway struct {
	baseURL string
	http    *http.Client
	limits  Limits
	token   TokenProvider
	logger  *slog.Logger
}

// New creates a Gateway for the service rooted at baseURL
// (e.g. "http://localhost:8080/api").
func New(baseURL string, token TokenProvider, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		limits:  Limits{MaxBodyBytes: defaultMaxBodyBytes},
		token:   token,
		logger:  logging.Default().Logger,
	}
	if g.token == nil {
		g.token = func() string { return "" }
	}

	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fetch retrieves the full cart.
func (g *Gateway) Fetch(ctx context.Context) (cart.Cart, error) {
	return g.doCart(ctx, cartErrors.OpFetch, http.MethodGet, "/cart", nil)
}

// Add adds quantity units of a product and returns the updated cart.
func (g *Gateway) Add(ctx context.Context, productID int64, quantity int) (cart.Cart, error) {
	if err := validateProductID(cartErrors.OpAdd, productID); err != nil {
		return cart.Cart{}, err
	}
	if err := validateQuantity(cartErrors.OpAdd, quantity); err != nil {
		return cart.Cart{}, err
	}
	q := url.Values{
		"productId": {strconv.FormatInt(productID, 10)},
		"quantity":  {strconv.Itoa(quantity)},
	}
	return g.doCart(ctx, cartErrors.OpAdd, http.MethodPost, "/cart/add", q)
}

// Remove deletes a product line and returns the updated cart.
func (g *Gateway) Remove(ctx context.Context, productID int64) (cart.Cart, error) {
	if err := validateProductID(cartErrors.OpRemove, productID); err != nil {
		return cart.Cart{}, err
	}
	path := fmt.Sprintf("/cart/remove/%d", productID)
	return g.doCart(ctx, cartErrors.OpRemove, http.MethodDelete, path, nil)
}

// SetQuantity replaces the quantity of an existing line and returns the
// updated cart. Quantities below one are rejected locally; removal has its
// own operation.
func (g *Gateway) SetQuantity(ctx context.Context, productID int64, quantity int) (cart.Cart, error) {
	if err := validateProductID(cartErrors.OpSetQuantity, productID); err != nil {
		return cart.Cart{}, err
	}
	if err := validateQuantity(cartErrors.OpSetQuantity, quantity); err != nil {
		return cart.Cart{}, err
	}
	q := url.Values{
		"productId": {strconv.FormatInt(productID, 10)},
		"quantity":  {strconv.Itoa(quantity)},
	}
	return g.doCart(ctx, cartErrors.OpSetQuantity, http.MethodPut, "/cart/update", q)
}

// Clear empties the cart. The service may answer with the (empty) cart or
// with no body at all; both decode to an empty cart.
func (g *Gateway) Clear(ctx context.Context) (cart.Cart, error) {
	return g.doCart(ctx, cartErrors.OpClear, http.MethodDelete, "/cart/clear", nil)
}

// Count retrieves the lightweight item count. The response is a bare
// integer.
func (g *Gateway) Count(ctx context.Context) (int, error) {
	body, err := g.do(ctx, cartErrors.OpCount, http.MethodGet, "/cart/count", nil)
	if err != nil {
		return 0, err
	}

	var count int
	if err := json.Unmarshal(body, &count); err != nil {
		return 0, cartErrors.NewServerError(cartErrors.OpCount, fmt.Errorf("malformed count response: %w", err))
	}
	if count < 0 {
		return 0, cartErrors.NewServerError(cartErrors.OpCount, fmt.Errorf("negative count %d", count))
	}
	return count, nil
}

func (g *Gateway) doCart(ctx context.Context, op cartErrors.Operation, method, path string, query url.Values) (cart.Cart, error) {
	body, err := g.do(ctx, op, method, path, query)
	if err != nil {
		return cart.Cart{}, err
	}

	if len(body) == 0 {
		return cart.Empty(), nil
	}

	var c cart.Cart
	if err := json.Unmarshal(body, &c); err != nil {
		return cart.Cart{}, cartErrors.NewServerError(op, fmt.Errorf("malformed cart response: %w", err))
	}
	return c, nil
}

// do performs one request and returns the raw body of a 2xx response.
// Non-2xx statuses and transport failures come back classified.
func (g *Gateway) do(ctx context.Context, op cartErrors.Operation, method, path string, query url.Values) ([]byte, error) {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, cartErrors.NewWithComponent(op, "gateway", fmt.Errorf("failed to create request: %w", err))
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if token := g.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	g.logger.Debug("cart request",
		slog.String("method", method),
		slog.String("url", u),
		slog.String("request_id", requestID))

	resp, err := g.http.Do(req)
	if err != nil {
		g.logger.Debug("cart request failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, cartErrors.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	maxBytes := g.limits.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, cartErrors.NewNetworkError(op, fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, cartErrors.NewSessionExpired(op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)))
	case resp.StatusCode == http.StatusForbidden:
		return nil, cartErrors.NewForbidden(op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)))
	default:
		return nil, cartErrors.NewServerError(op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)))
	}
}

func validateProductID(op cartErrors.Operation, productID int64) error {
	if productID <= 0 {
		return cartErrors.NewValidationError(op, fmt.Errorf("productId must be positive, got %d", productID))
	}
	return nil
}

func validateQuantity(op cartErrors.Operation, quantity int) error {
	if quantity < 1 {
		return cartErrors.NewValidationError(op, fmt.Errorf("quantity must be >= 1, got %d", quantity))
	}
	return nil
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
