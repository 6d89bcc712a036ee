package cartkit

import "github.com/c0deZ3R0/go-cart-kit/cart"

// Phase is the engine lifecycle phase.
type Phase string

const (
	// PhaseUninitialized means Start has not been called yet.
	PhaseUninitialized Phase = "uninitialized"

	// PhaseLoading means a full fetch is pending and no newer authoritative
	// value has arrived. Any previously published cart stays visible so the
	// UI does not flicker back to empty.
	PhaseLoading Phase = "loading"

	// PhaseReady means the engine has a definite cart value to render.
	PhaseReady Phase = "ready"
)

// Provenance tags where a Ready cart value came from.
type Provenance string

const (
	// ProvenanceNone marks a locally authored value: the empty cart
	// published on logout or when neither server nor cache had anything.
	ProvenanceNone Provenance = ""

	// FromServer marks an authoritative server response.
	FromServer Provenance = "server"

	// FromCacheFallback marks the durable cache snapshot, published either
	// at startup for latency hiding or after a failed fetch.
	FromCacheFallback Provenance = "cache"
)

// State is the engine's published state. Consumers must treat it as
// read-only; the contained cart is a deep copy on every read.
type State struct {
	Phase      Phase      `json:"phase"`
	Provenance Provenance `json:"provenance,omitempty"`
	Cart       cart.Cart  `json:"cart"`
}

// clone returns a copy safe to hand to consumers.
func (s State) clone() State {
	out := s
	out.Cart = s.Cart.Clone()
	return out
}
