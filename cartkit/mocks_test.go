package cartkit

import (
	"context"
	"sync/atomic"

	"github.com/c0deZ3R0/go-cart-kit/cart"
)

// mockGateway implements Gateway with scriptable function fields. Calls
// are counted, and in-flight tracking lets tests assert the engine never
// overlaps two mutations.
type mockGateway struct {
	FetchFunc       func(ctx context.Context) (cart.Cart, error)
	AddFunc         func(ctx context.Context, productID int64, quantity int) (cart.Cart, error)
	RemoveFunc      func(ctx context.Context, productID int64) (cart.Cart, error)
	SetQuantityFunc func(ctx context.Context, productID int64, quantity int) (cart.Cart, error)
	ClearFunc       func(ctx context.Context) (cart.Cart, error)
	CountFunc       func(ctx context.Context) (int, error)

	fetchCalls  atomic.Int32
	addCalls    atomic.Int32
	removeCalls atomic.Int32
	setCalls    atomic.Int32
	clearCalls  atomic.Int32
	countCalls  atomic.Int32

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newMockGateway() *mockGateway {
	return &mockGateway{}
}

func (m *mockGateway) enter() {
	cur := m.inFlight.Add(1)
	for {
		max := m.maxInFlight.Load()
		if cur <= max || m.maxInFlight.CompareAndSwap(max, cur) {
			return
		}
	}
}

func (m *mockGateway) leave() {
	m.inFlight.Add(-1)
}

func (m *mockGateway) Fetch(ctx context.Context) (cart.Cart, error) {
	m.fetchCalls.Add(1)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	return cart.Empty(), nil
}

func (m *mockGateway) Add(ctx context.Context, productID int64, quantity int) (cart.Cart, error) {
	m.addCalls.Add(1)
	m.enter()
	defer m.leave()
	if m.AddFunc != nil {
		return m.AddFunc(ctx, productID, quantity)
	}
	return cart.Empty(), nil
}

func (m *mockGateway) Remove(ctx context.Context, productID int64) (cart.Cart, error) {
	m.removeCalls.Add(1)
	m.enter()
	defer m.leave()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, productID)
	}
	return cart.Empty(), nil
}

func (m *mockGateway) SetQuantity(ctx context.Context, productID int64, quantity int) (cart.Cart, error) {
	m.setCalls.Add(1)
	m.enter()
	defer m.leave()
	if m.SetQuantityFunc != nil {
		return m.SetQuantityFunc(ctx, productID, quantity)
	}
	return cart.Empty(), nil
}

func (m *mockGateway) Clear(ctx context.Context) (cart.Cart, error) {
	m.clearCalls.Add(1)
	m.enter()
	defer m.leave()
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	return cart.Empty(), nil
}

func (m *mockGateway) Count(ctx context.Context) (int, error) {
	m.countCalls.Add(1)
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}
