package sqlitecache

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/c0deZ3R0/go-cart-kit/cart"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := New(DefaultConfig(path))
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestReadMissOnEmptyCache(t *testing.T) {
	c := newTestCache(t)

	_, ok, err := c.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ok {
		t.Error("expected a miss on an empty cache")
	}
}

func TestWriteThenRead(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	want := cart.Cart{
		ID:         3,
		TotalItems: 2,
		Items:      []cart.Item{{ProductID: 1, ProductName: "mug", Price: 9.99, Quantity: 2}},
	}
	if err := c.Write(ctx, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, ok, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit after Write")
	}
	if !got.Equal(want) {
		t.Errorf("Read = %+v, want %+v", got, want)
	}
}

func TestWriteReplacesPreviousSnapshot(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		snap := cart.Cart{TotalItems: i, Items: []cart.Item{{ProductID: int64(i), Quantity: i}}}
		if err := c.Write(ctx, snap); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	got, ok, err := c.Read(ctx)
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if got.TotalItems != 3 {
		t.Errorf("TotalItems = %d, want last written 3", got.TotalItems)
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Write(ctx, cart.Empty()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	_, ok, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ok {
		t.Error("expected a miss after Clear")
	}
}

func TestCorruptSnapshotIsTreatedAsMiss(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	query := fmt.Sprintf(`INSERT INTO %s (cache_key, payload) VALUES (?, ?)`, c.tableName)
	if _, err := c.db.ExecContext(ctx, query, c.key, `{"items": garbage`); err != nil {
		t.Fatalf("seeding corrupt row: %v", err)
	}

	_, ok, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("corrupt snapshot must not error, got %v", err)
	}
	if ok {
		t.Error("corrupt snapshot must be reported as a miss")
	}
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first, err := New(DefaultConfig(path))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	want := cart.Cart{TotalItems: 1, Items: []cart.Item{{ProductID: 5, Quantity: 1}}}
	if err := first.Write(ctx, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := New(DefaultConfig(path))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	got, ok, err := second.Read(ctx)
	if err != nil || !ok {
		t.Fatalf("Read after reopen: ok=%v err=%v", ok, err)
	}
	if !got.Equal(want) {
		t.Errorf("Read = %+v, want %+v", got, want)
	}
}

func TestClosedCacheRejectsOperations(t *testing.T) {
	c := newTestCache(t)
	c.Close()

	if _, _, err := c.Read(context.Background()); err != ErrCacheClosed {
		t.Errorf("Read on closed cache = %v, want ErrCacheClosed", err)
	}
	if err := c.Write(context.Background(), cart.Empty()); err != ErrCacheClosed {
		t.Errorf("Write on closed cache = %v, want ErrCacheClosed", err)
	}
}
