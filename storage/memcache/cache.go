// Package memcache provides an in-memory cart snapshot cache.
//
// It satisfies the same contract as the SQLite cache but loses its
// snapshot on restart. Intended for tests and ephemeral sessions.
package memcache

import (
	"context"
	"errors"
	"sync"

	"github.com/c0deZ3R0/go-cart-kit/cart"
)

// ErrCacheClosed is returned by operations on a closed cache.
var ErrCacheClosed = errors.New("cache is closed")

// Cache is a process-local snapshot store.
type Cache struct {
	mu       sync.RWMutex
	snapshot cart.Cart
	present  bool
	closed   bool
}

// New returns an empty in-memory cache.
func New() *Cache {
	return &Cache{}
}

// Read returns the stored snapshot and whether one was present.
func (c *Cache) Read(_ context.Context) (cart.Cart, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return cart.Cart{}, false, ErrCacheClosed
	}
	if !c.present {
		return cart.Cart{}, false, nil
	}
	return c.snapshot.Clone(), true, nil
}

// Write stores the snapshot.
func (c *Cache) Write(_ context.Context, snapshot cart.Cart) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.snapshot = snapshot.Clone()
	c.present = true
	return nil
}

// Clear removes the snapshot.
func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.snapshot = cart.Cart{}
	c.present = false
	return nil
}

// Close marks the cache closed. Further operations fail with
// ErrCacheClosed. Closing twice is a no-op.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = cart.Cart{}
	c.present = false
	c.closed = true
	return nil
}
