package cart

import (
	"encoding/json"
	"testing"
)

func TestEmpty(t *testing.T) {
	c := Empty()
	if c.Items == nil {
		t.Fatal("Empty() must return a non-nil Items slice")
	}
	if len(c.Items) != 0 || c.TotalItems != 0 {
		t.Errorf("Empty() = %+v, want no items and zero total", c)
	}
}

func TestSumQuantities(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  int
	}{
		{"no items", nil, 0},
		{"single item", []Item{{ProductID: 1, Quantity: 2}}, 2},
		{"multiple items", []Item{{ProductID: 1, Quantity: 2}, {ProductID: 7, Quantity: 3}}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Cart{Items: tt.items}
			if got := c.SumQuantities(); got != tt.want {
				t.Errorf("SumQuantities() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFind(t *testing.T) {
	c := Cart{Items: []Item{{ProductID: 5, Quantity: 1}, {ProductID: 9, Quantity: 4}}}

	it, ok := c.Find(9)
	if !ok || it.Quantity != 4 {
		t.Errorf("Find(9) = %+v, %v", it, ok)
	}

	if _, ok := c.Find(42); ok {
		t.Error("Find(42) should miss")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Cart{ID: 1, TotalItems: 2, Items: []Item{{ProductID: 5, Quantity: 2}}}
	cp := orig.Clone()

	cp.Items[0].Quantity = 99
	if orig.Items[0].Quantity != 2 {
		t.Error("Clone shares the items slice with the original")
	}
	if !orig.Equal(Cart{ID: 1, TotalItems: 2, Items: []Item{{ProductID: 5, Quantity: 2}}}) {
		t.Error("original mutated by clone edit")
	}
}

func TestEqual(t *testing.T) {
	base := Cart{ID: 1, TotalItems: 3, Items: []Item{{ProductID: 1, Quantity: 3}}}

	tests := []struct {
		name  string
		other Cart
		want  bool
	}{
		{"identical", Cart{ID: 1, TotalItems: 3, Items: []Item{{ProductID: 1, Quantity: 3}}}, true},
		{"different count", Cart{ID: 1, TotalItems: 4, Items: []Item{{ProductID: 1, Quantity: 3}}}, false},
		{"different item", Cart{ID: 1, TotalItems: 3, Items: []Item{{ProductID: 2, Quantity: 3}}}, false},
		{"extra item", Cart{ID: 1, TotalItems: 3, Items: []Item{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 1}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnmarshalServerCountIsAuthoritative(t *testing.T) {
	// The server's count wins even when it disagrees with the local sum,
	// e.g. after server-side cart expiry trimmed an item.
	body := []byte(`{"cartId":3,"totalItems":7,"items":[{"productId":5,"productName":"mug","price":9.99,"quantity":2}]}`)

	var c Cart
	if err := json.Unmarshal(body, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.TotalItems != 7 {
		t.Errorf("TotalItems = %d, want server-provided 7", c.TotalItems)
	}
}

func TestUnmarshalDerivesCountWhenOmitted(t *testing.T) {
	body := []byte(`{"cartId":3,"items":[{"productId":5,"quantity":2},{"productId":8,"quantity":1}]}`)

	var c Cart
	if err := json.Unmarshal(body, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.TotalItems != 3 {
		t.Errorf("TotalItems = %d, want derived 3", c.TotalItems)
	}
}

func TestUnmarshalMissingItemsIsEmptyCart(t *testing.T) {
	var c Cart
	if err := json.Unmarshal([]byte(`{"cartId":1}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Items == nil {
		t.Fatal("missing items must decode as an empty slice, not nil")
	}
	if len(c.Items) != 0 || c.TotalItems != 0 {
		t.Errorf("decoded cart = %+v, want empty", c)
	}
}
