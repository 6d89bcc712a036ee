// Package cartkit implements the cart synchronization engine.
//
// The engine owns the in-memory authoritative cart, mediates between the
// durable local cache and the remote cart gateway, serializes mutations so
// two writes can never race on stale state, and publishes a single State
// value the UI renders from. It is the only writer to both the in-memory
// cart and the cached snapshot.
package cartkit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c0deZ3R0/go-cart-kit/cart"
	cartErrors "github.com/c0deZ3R0/go-cart-kit/errors"
	"github.com/c0deZ3R0/go-cart-kit/session"
	"github.com/c0deZ3R0/go-cart-kit/storage/memcache"
)

// Gateway is the remote cart service surface the engine drives. Every
// mutation returns the full updated cart; the engine trusts that value
// over any local computation and never merges.
type Gateway interface {
	Fetch(ctx context.Context) (cart.Cart, error)
	Add(ctx context.Context, productID int64, quantity int) (cart.Cart, error)
	Remove(ctx context.Context, productID int64) (cart.Cart, error)
	SetQuantity(ctx context.Context, productID int64, quantity int) (cart.Cart, error)
	Clear(ctx context.Context) (cart.Cart, error)
	Count(ctx context.Context) (int, error)
}

// Cache is the durable snapshot store. It survives restarts and stores
// exactly what it is given.
type Cache interface {
	Read(ctx context.Context) (cart.Cart, bool, error)
	Write(ctx context.Context, snapshot cart.Cart) error
	Clear(ctx context.Context) error
	Close() error
}

// SessionSource exposes the authentication state the engine observes.
// The engine never owns or changes it.
type SessionSource interface {
	Current() session.State
	Subscribe(fn session.Listener) (cancel func())
}

// Listener receives every published engine state.
type Listener func(State)

// Engine is the cart synchronization engine. Construct with New, call
// Start once, and Close when done.
type Engine struct {
	gateway  Gateway
	cache    Cache
	sessions SessionSource
	logger   *slog.Logger

	refreshInterval time.Duration
	timeout         time.Duration
	clock           Clock

	// seq tags operations so a completion is applied only if it is the
	// newest seen. Fetches take their number at issue time; mutations and
	// logout take theirs at apply time, which is what makes a write win
	// over any overlapping read.
	seq atomic.Uint64

	mu    sync.RWMutex
	state State

	applied uint64

	// epoch is bumped on logout; completions carrying an older epoch are
	// discarded so nothing from the previous session leaks past it.
	epoch uint64

	subscribers  map[int]Listener
	nextSubID    int
	refreshStop  chan struct{}
	unsubSession func()
	started      bool
	closed       bool

	// persistMu orders durable writes. persisted tracks the highest
	// sequence number written so a superseded result can never land in
	// the cache after its successor.
	persistMu sync.Mutex
	persisted uint64

	// mutMu serializes mutations: one in flight, later calls queue behind
	// it and observe its result.
	mutMu sync.Mutex
}

// New creates an Engine. The gateway and session source are required; the
// cache defaults to an ephemeral in-memory store unless WithCache is given.
func New(gateway Gateway, sessions SessionSource, opts ...Option) (*Engine, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source is required")
	}

	e := &Engine{
		gateway:         gateway,
		sessions:        sessions,
		refreshInterval: DefaultRefreshInterval,
		timeout:         DefaultTimeout,
		subscribers:     make(map[int]Listener),
		state:           State{Phase: PhaseUninitialized},
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.cache == nil {
		e.cache = memcache.New()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.clock == nil {
		e.clock = realClock{}
	}
	return e, nil
}

// Start activates the engine: it primes the published state from the
// durable cache so the UI has something to render without waiting on the
// network, subscribes to session transitions, and, if a credential is
// already present, performs the initial full fetch.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return cartErrors.New(cartErrors.OpFetch, fmt.Errorf("engine is closed"))
	}
	if e.started {
		e.mu.Unlock()
		return cartErrors.New(cartErrors.OpFetch, fmt.Errorf("engine is already started"))
	}
	e.started = true
	e.state.Phase = PhaseLoading
	e.mu.Unlock()

	primed := e.primeFromCache(ctx)

	e.unsubSession = e.sessions.Subscribe(e.onSessionChange)

	st := e.sessions.Current()
	if st.Authenticated {
		if err := e.fetchAndReconcile(ctx, cartErrors.OpFetch); err != nil {
			e.logger.Warn("initial cart fetch failed, serving fallback",
				slog.String("error", err.Error()))
		}
		e.startRefresh()
		return nil
	}

	if !primed {
		// Unauthenticated with nothing cached: a definite empty cart, not
		// an endless loading state.
		e.publish(e.currentEpoch(), e.nextSeq(), cart.Empty(), ProvenanceNone, false)
	}
	return nil
}

// GetState returns the current published state. The contained cart is a
// deep copy; callers may hold it as long as they like.
func (e *Engine) GetState() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.clone()
}

// Subscribe registers a listener for every published state and returns a
// cancel function. Listeners are invoked synchronously after each publish.
func (e *Engine) Subscribe(fn Listener) (cancel func()) {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// Refresh forces a full re-fetch. The fallback policy applies on failure
// and the error is returned so callers can surface it.
func (e *Engine) Refresh(ctx context.Context) error {
	if e.isClosed() {
		return cartErrors.New(cartErrors.OpRefresh, fmt.Errorf("engine is closed"))
	}
	if !e.sessions.Current().Authenticated {
		return cartErrors.NewNotAuthenticated(cartErrors.OpRefresh)
	}
	return e.fetchAndReconcile(ctx, cartErrors.OpRefresh)
}

// Add adds quantity units of a product to the cart.
func (e *Engine) Add(ctx context.Context, productID int64, quantity int) error {
	if productID <= 0 {
		return cartErrors.NewValidationError(cartErrors.OpAdd, fmt.Errorf("productId must be positive, got %d", productID))
	}
	if quantity < 1 {
		return cartErrors.NewValidationError(cartErrors.OpAdd, fmt.Errorf("quantity must be >= 1, got %d", quantity))
	}
	return e.mutate(ctx, cartErrors.OpAdd, persistWrite, func(ctx context.Context) (cart.Cart, error) {
		return e.gateway.Add(ctx, productID, quantity)
	})
}

// Remove deletes a product line from the cart. Dropping a quantity below
// one goes through here, never through SetQuantity.
func (e *Engine) Remove(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return cartErrors.NewValidationError(cartErrors.OpRemove, fmt.Errorf("productId must be positive, got %d", productID))
	}
	return e.mutate(ctx, cartErrors.OpRemove, persistWrite, func(ctx context.Context) (cart.Cart, error) {
		return e.gateway.Remove(ctx, productID)
	})
}

// SetQuantity replaces the quantity of an existing line. Quantity must be
// at least one; the request is rejected locally otherwise.
func (e *Engine) SetQuantity(ctx context.Context, productID int64, quantity int) error {
	if productID <= 0 {
		return cartErrors.NewValidationError(cartErrors.OpSetQuantity, fmt.Errorf("productId must be positive, got %d", productID))
	}
	if quantity < 1 {
		return cartErrors.NewValidationError(cartErrors.OpSetQuantity, fmt.Errorf("quantity must be >= 1, got %d", quantity))
	}
	return e.mutate(ctx, cartErrors.OpSetQuantity, persistWrite, func(ctx context.Context) (cart.Cart, error) {
		return e.gateway.SetQuantity(ctx, productID, quantity)
	})
}

// Clear empties the cart and removes the durable snapshot.
func (e *Engine) Clear(ctx context.Context) error {
	return e.mutate(ctx, cartErrors.OpClear, persistClear, func(ctx context.Context) (cart.Cart, error) {
		return e.gateway.Clear(ctx)
	})
}

// Close shuts the engine down: the refresh loop stops, the session
// subscription is dropped, and the cache is closed. In-flight operations
// complete but their results are no longer applied.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.refreshStop != nil {
		close(e.refreshStop)
		e.refreshStop = nil
	}
	unsub := e.unsubSession
	e.unsubSession = nil
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	if err := e.cache.Close(); err != nil {
		return cartErrors.NewWithComponent(cartErrors.OpClose, "cache", err)
	}
	return nil
}

type persistMode int

const (
	persistWrite persistMode = iota
	persistClear
)

// mutate runs one serialized mutation. The authentication precondition is
// checked before queueing and again after acquiring the slot, since the
// session may have ended while waiting.
func (e *Engine) mutate(ctx context.Context, op cartErrors.Operation, persist persistMode, call func(context.Context) (cart.Cart, error)) error {
	if e.isClosed() {
		return cartErrors.New(op, fmt.Errorf("engine is closed"))
	}
	if !e.sessions.Current().Authenticated {
		return cartErrors.NewNotAuthenticated(op)
	}

	e.mutMu.Lock()
	defer e.mutMu.Unlock()

	if e.isClosed() {
		return cartErrors.New(op, fmt.Errorf("engine is closed"))
	}
	if !e.sessions.Current().Authenticated {
		return cartErrors.NewNotAuthenticated(op)
	}

	epoch := e.currentEpoch()

	opCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	result, err := call(opCtx)
	if err != nil {
		// The in-memory cart and the cached snapshot stay exactly as they
		// were: no optimistic write survives a failed confirmation, and a
		// rejected credential never destroys user data.
		e.logger.Debug("mutation failed",
			slog.String("operation", string(op)),
			slog.String("error", err.Error()))
		return err
	}

	// A mutation takes its sequence number at apply time, so an
	// overlapping fetch that was issued later can never bury its result.
	// The epoch check is the counterweight: a logout during the request
	// wins, and the result is discarded instead of resurrecting the cart
	// the logout just emptied.
	seq := e.nextSeq()
	if !e.publish(epoch, seq, result, FromServer, persist == persistWrite) {
		if e.isClosed() {
			return cartErrors.New(op, fmt.Errorf("engine is closed"))
		}
		if !e.sessions.Current().Authenticated {
			e.logger.Debug("discarding mutation result after logout",
				slog.String("operation", string(op)))
			return cartErrors.NewNotAuthenticated(op)
		}
		// A newer authoritative value landed first; it already reflects
		// this mutation's server-side effect.
		return nil
	}
	if persist == persistClear {
		e.persistClear(seq)
	}
	return nil
}

// fetchAndReconcile performs a full fetch and applies the fallback policy:
// server truth when available, cached snapshot on transport failure, and
// never a destructive clear on an auth rejection.
func (e *Engine) fetchAndReconcile(ctx context.Context, op cartErrors.Operation) error {
	epoch := e.currentEpoch()
	seq := e.nextSeq()

	opCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	fetched, err := e.gateway.Fetch(opCtx)
	if err == nil {
		e.publish(epoch, seq, fetched, FromServer, true)
		return nil
	}

	if cartErrors.CodeOf(err) == cartErrors.CodeSessionExpired {
		// Session invalidation is the session layer's problem to repair.
		// Keep whatever the UI already has; fall back to the cache only if
		// nothing is published yet.
		e.mu.RLock()
		ready := e.state.Phase == PhaseReady
		e.mu.RUnlock()
		if !ready {
			e.fallbackToCache(ctx, epoch, seq)
		}
		return err
	}

	e.fallbackToCache(ctx, epoch, seq)
	return err
}

func (e *Engine) fallbackToCache(ctx context.Context, epoch, seq uint64) {
	cached, ok, err := e.cache.Read(ctx)
	if err != nil {
		e.logger.Warn("cache read failed during fallback",
			slog.String("error", err.Error()))
		ok = false
	}
	if ok {
		e.publish(epoch, seq, cached, FromCacheFallback, false)
	} else {
		e.publish(epoch, seq, cart.Empty(), ProvenanceNone, false)
	}
}

// primeFromCache publishes the cached snapshot at startup, if any.
func (e *Engine) primeFromCache(ctx context.Context) bool {
	cached, ok, err := e.cache.Read(ctx)
	if err != nil {
		e.logger.Warn("cache read failed at startup",
			slog.String("error", err.Error()))
		return false
	}
	if !ok {
		return false
	}
	e.publish(e.currentEpoch(), e.nextSeq(), cached, FromCacheFallback, false)
	return true
}

func (e *Engine) onSessionChange(st session.State) {
	if e.isClosed() {
		return
	}

	if st.Authenticated {
		e.mu.Lock()
		e.state.Phase = PhaseLoading
		e.mu.Unlock()

		if err := e.fetchAndReconcile(context.Background(), cartErrors.OpFetch); err != nil {
			e.logger.Warn("cart fetch after login failed, serving fallback",
				slog.String("error", err.Error()))
		}
		e.startRefresh()
		return
	}

	// Logout: bump the epoch so anything still in flight is discarded on
	// completion, suspend the refresh loop, publish a definite empty cart,
	// and drop the durable snapshot so the next login on this profile
	// cannot see the previous user's cart. The apply-time sequence number
	// makes the empty publish win over any in-flight fetch result.
	e.mu.Lock()
	e.epoch++
	epoch := e.epoch
	e.mu.Unlock()

	e.stopRefresh()
	seq := e.nextSeq()
	e.publish(epoch, seq, cart.Empty(), ProvenanceNone, false)
	e.persistClear(seq)
}

// publish applies a completed operation's cart value if it is still the
// newest and was issued in the current session epoch, persists it when
// asked, and notifies subscribers. It reports whether the value was
// applied; a completion from before a logout is discarded so the logout's
// empty cart stands.
func (e *Engine) publish(epoch, seq uint64, value cart.Cart, prov Provenance, persist bool) bool {
	e.mu.Lock()
	if e.closed || epoch != e.epoch || seq <= e.applied {
		e.mu.Unlock()
		return false
	}
	e.applied = seq
	e.state = State{Phase: PhaseReady, Provenance: prov, Cart: value.Clone()}
	snapshot := e.state.clone()
	listeners := e.listenersLocked()
	e.mu.Unlock()

	if persist {
		e.persistSnapshot(seq, snapshot.Cart)
	}

	for _, fn := range listeners {
		fn(snapshot)
	}
	return true
}

// persistSnapshot writes the snapshot to the durable cache unless a newer
// value has already been persisted.
func (e *Engine) persistSnapshot(seq uint64, snapshot cart.Cart) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	if seq <= e.persisted {
		return
	}
	e.persisted = seq

	ctx, cancel := e.withTimeout(context.Background())
	defer cancel()
	if err := e.cache.Write(ctx, snapshot); err != nil {
		e.logger.Warn("failed to persist cart snapshot",
			slog.String("error", err.Error()))
	}
}

// persistClear removes the durable snapshot unless a newer value has
// already been persisted.
func (e *Engine) persistClear(seq uint64) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	if seq <= e.persisted {
		return
	}
	e.persisted = seq

	ctx, cancel := e.withTimeout(context.Background())
	defer cancel()
	if err := e.cache.Clear(ctx); err != nil {
		e.logger.Warn("failed to clear cart snapshot",
			slog.String("error", err.Error()))
	}
}

func (e *Engine) currentEpoch() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.epoch
}

// applyCount overwrites only the count field of an already detailed state.
// A coarse count-only refresh must never regress the item list.
func (e *Engine) applyCount(epoch, seq uint64, count int) {
	e.mu.Lock()
	if e.closed || epoch != e.epoch || e.state.Phase != PhaseReady || seq <= e.applied {
		e.mu.Unlock()
		return
	}
	if e.state.Cart.TotalItems == count {
		e.mu.Unlock()
		return
	}
	e.applied = seq
	e.state.Cart.TotalItems = count
	snapshot := e.state.clone()
	listeners := e.listenersLocked()
	e.mu.Unlock()

	e.persistSnapshot(seq, snapshot.Cart)

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// startRefresh begins the periodic count-only refresh. Failures are logged
// and otherwise silent: a background refresh must never interrupt browsing.
func (e *Engine) startRefresh() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.refreshInterval <= 0 || e.refreshStop != nil {
		return
	}

	stopChan := make(chan struct{})
	e.refreshStop = stopChan

	go func() {
		ticker := e.clock.NewTicker(e.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stopChan:
				return
			case <-ticker.C():
				// A tick delivered in the same instant as the stop loses.
				select {
				case <-stopChan:
					return
				default:
				}

				epoch := e.currentEpoch()
				seq := e.nextSeq()
				ctx, cancel := e.withTimeout(context.Background())
				count, err := e.gateway.Count(ctx)
				cancel()
				if err != nil {
					e.logger.Warn("count refresh failed",
						slog.String("error", err.Error()))
					continue
				}
				e.applyCount(epoch, seq, count)
			}
		}
	}()
}

func (e *Engine) stopRefresh() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.refreshStop != nil {
		close(e.refreshStop)
		e.refreshStop = nil
	}
}

func (e *Engine) listenersLocked() []Listener {
	ids := make([]int, 0, len(e.subscribers))
	for id := range e.subscribers {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.subscribers[id])
	}
	return fns
}

func (e *Engine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

func (e *Engine) nextSeq() uint64 {
	return e.seq.Add(1)
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}
