// Package session tracks the caller's authentication state.
//
// The cart engine only observes transitions of this value; authentication
// mechanics (login, token refresh) live with the caller.
package session

import "sync"

// State is an immutable snapshot of the session.
type State struct {
	// Authenticated reports whether a credential is currently available.
	Authenticated bool

	// Token is the opaque bearer credential, empty when unauthenticated.
	Token string
}

// Listener is invoked on every state transition with the new snapshot.
type Listener func(State)

// Source holds the current session state and notifies subscribers on change.
// It is safe for concurrent use.
type Source struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// NewSource returns an unauthenticated session source.
func NewSource() *Source {
	return &Source{listeners: make(map[int]Listener)}
}

// Current returns the current snapshot.
func (s *Source) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetToken marks the session authenticated with the given credential.
// Subscribers are notified only if the state actually changed.
func (s *Source) SetToken(token string) {
	s.transition(State{Authenticated: token != "", Token: token})
}

// Clear marks the session unauthenticated (logout or credential loss).
func (s *Source) Clear() {
	s.transition(State{})
}

// Subscribe registers a listener for state transitions and returns a
// cancel function. Listeners are called synchronously, in registration
// order, so a login transition is fully handled before the caller regains
// control.
func (s *Source) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Source) transition(next State) {
	s.mu.Lock()
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next

	fns := make([]Listener, 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	// Map iteration order is random; deliver in registration order.
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
