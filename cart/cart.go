// Package cart defines the domain model for a storefront shopping cart.
//
// Cart is the aggregate root. The engine owns the authoritative value;
// every other component holds an immutable read reference, so the type
// provides deep Clone and value Equal rather than shared mutation helpers.
package cart

import "encoding/json"

// Item is a single line in a cart, unique by ProductID.
type Item struct {
	// ProductID is the stable identifier used as the reconciliation key.
	ProductID int64 `json:"productId"`

	// ProductName is the display name at the time the item was added.
	ProductName string `json:"productName"`

	// Price is the unit price in currency units, non-negative.
	Price float64 `json:"price"`

	// Quantity is always >= 1 while the item is present. An item whose
	// quantity would drop below 1 is removed, never stored at zero.
	Quantity int `json:"quantity"`

	// ImageURL is optional.
	ImageURL string `json:"imageUrl,omitempty"`
}

// Cart is the aggregate root.
//
// An empty cart is represented as Items = []Item{}, never as an absent
// value: absence means "not loaded yet", emptiness means "loaded and empty".
type Cart struct {
	ID         int64   `json:"cartId,omitempty"`
	TotalItems int     `json:"totalItems"`
	TotalPrice float64 `json:"totalPrice,omitempty"`
	Items      []Item  `json:"items"`
}

// Empty returns a loaded-and-empty cart, distinct from a nil *Cart.
func Empty() Cart {
	return Cart{Items: []Item{}}
}

// SumQuantities returns the sum of the item quantities. It is the fallback
// for TotalItems when the server omits an authoritative count.
func (c Cart) SumQuantities() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

// Find returns the item for productID and whether it is present.
func (c Cart) Find(productID int64) (Item, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

// Clone returns a deep copy. Consumers of engine state never receive the
// engine's own slice.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]Item, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

// Equal reports value equality, including item order.
func (c Cart) Equal(other Cart) bool {
	if c.ID != other.ID || c.TotalItems != other.TotalItems || c.TotalPrice != other.TotalPrice {
		return false
	}
	if len(c.Items) != len(other.Items) {
		return false
	}
	for i := range c.Items {
		if c.Items[i] != other.Items[i] {
			return false
		}
	}
	return true
}

// wireCart mirrors the service's JSON representation. TotalItems is a
// pointer so that an omitted server count can be told apart from zero.
type wireCart struct {
	ID         int64    `json:"cartId"`
	TotalItems *int     `json:"totalItems"`
	TotalPrice *float64 `json:"totalPrice"`
	Items      []Item   `json:"items"`
}

// UnmarshalJSON decodes the service representation. A server-provided
// totalItems is ground truth; when the field is absent the count is derived
// from the item quantities. A missing items array decodes as an empty cart.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var w wireCart
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	c.ID = w.ID
	if w.Items == nil {
		c.Items = []Item{}
	} else {
		c.Items = w.Items
	}
	if w.TotalItems != nil {
		c.TotalItems = *w.TotalItems
	} else {
		c.TotalItems = c.SumQuantities()
	}
	if w.TotalPrice != nil {
		c.TotalPrice = *w.TotalPrice
	} else {
		c.TotalPrice = 0
	}
	return nil
}
