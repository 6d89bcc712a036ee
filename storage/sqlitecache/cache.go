// Package sqlitecache provides a SQLite implementation of the cart
// snapshot cache.
//
// The cache is durable across process restarts and holds a single
// serialized cart under a fixed key. It never validates the snapshot it is
// given; an unreadable snapshot on the way out is reported as a miss, not
// an error, so a corrupt cache can never take the client down.
package sqlitecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	stdSync "sync"
	"time"

	"github.com/c0deZ3R0/go-cart-kit/cart"
	cartErrors "github.com/c0deZ3R0/go-cart-kit/errors"
	"github.com/c0deZ3R0/go-cart-kit/logging"

	// Go SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrCacheClosed is returned by operations on a closed cache.
var ErrCacheClosed = errors.New("cache is closed")

// DefaultKey is the fixed key the cart snapshot is stored under. The cache
// is scoped to the profile, not to an authenticated identity.
const DefaultKey = "cart"

// Config holds configuration options for the Cache.
type Config struct {
	// DataSourceName is the connection string for the SQLite database.
	DataSourceName string

	// EnableWAL enables Write-Ahead Logging mode. Recommended and on by
	// default via DefaultConfig. When true, appends "?_journal_mode=WAL"
	// to DataSourceName.
	EnableWAL bool

	// Key the snapshot is stored under. Defaults to DefaultKey.
	Key string

	// TableName is the snapshot table name. Defaults to "cart_snapshots".
	TableName string

	// Connection pool settings. A snapshot cache sees little concurrency,
	// so the defaults are deliberately small: MaxOpen=4, MaxIdle=2.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c *Config) setDefaults() {
	if c.Key == "" {
		c.Key = DefaultKey
	}
	if c.TableName == "" {
		c.TableName = "cart_snapshots"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 4
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 2
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.EnableWAL {
		if !strings.Contains(c.DataSourceName, "?_journal_mode=") {
			c.DataSourceName += "?_journal_mode=WAL"
		}
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// profile cache.
func DefaultConfig(dataSourceName string) *Config {
	config := &Config{
		DataSourceName: dataSourceName,
		EnableWAL:      true,
	}
	config.setDefaults()
	return config
}

// Cache is a durable single-snapshot cart store backed by SQLite.
type Cache struct {
	db        *sql.DB
	mu        stdSync.RWMutex
	closed    bool
	key       string
	tableName string
	logger    *slog.Logger
}

// New creates a Cache from a Config.
func New(config *Config) (*Cache, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	config.setDefaults()

	if config.DataSourceName == "" {
		return nil, fmt.Errorf("DataSourceName is required")
	}

	logger := logging.WithComponent(logging.Component("sqlite-cache")).Logger

	db, err := sql.Open("sqlite3", config.DataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	c := &Cache{
		db:        db,
		key:       config.Key,
		tableName: config.TableName,
		logger:    logger,
	}

	if err := c.setupSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup cache schema: %w", err)
	}

	logger.Debug("sqlite cart cache initialized",
		slog.String("data_source", config.DataSourceName),
		slog.String("key", config.Key))
	return c, nil
}

// NewWithDataSource is a convenience constructor using DefaultConfig.
func NewWithDataSource(dataSourceName string) (*Cache, error) {
	return New(DefaultConfig(dataSourceName))
}

func (c *Cache) setupSchema() error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS %s (
        cache_key   TEXT PRIMARY KEY,
        payload     TEXT NOT NULL,
        updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );`, c.tableName)
	_, err := c.db.Exec(query)
	return err
}

// Read returns the cached snapshot and whether one was present. A stored
// snapshot that no longer parses is logged and reported as a miss.
func (c *Cache) Read(ctx context.Context) (cart.Cart, bool, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return cart.Cart{}, false, ErrCacheClosed
	}
	c.mu.RUnlock()

	var payload string
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE cache_key = ?`, c.tableName)
	err := c.db.QueryRowContext(ctx, query, c.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return cart.Cart{}, false, nil
	}
	if err != nil {
		return cart.Cart{}, false, cartErrors.NewStorageError(cartErrors.OpCacheRead, err)
	}

	var snapshot cart.Cart
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		corrupt := cartErrors.NewCacheCorrupt(cartErrors.OpCacheRead, err)
		c.logger.Warn("discarding corrupt cart snapshot",
			slog.String("key", c.key),
			slog.String("error", corrupt.Error()))
		return cart.Cart{}, false, nil
	}
	return snapshot, true, nil
}

// Write stores the snapshot, replacing any previous one under the key.
func (c *Cache) Write(ctx context.Context, snapshot cart.Cart) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrCacheClosed
	}
	c.mu.RUnlock()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return cartErrors.NewStorageError(cartErrors.OpCacheWrite, fmt.Errorf("failed to marshal snapshot: %w", err))
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (cache_key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		c.tableName)
	if _, err := c.db.ExecContext(ctx, query, c.key, string(payload)); err != nil {
		return cartErrors.NewStorageError(cartErrors.OpCacheWrite, err)
	}
	return nil
}

// Clear removes the snapshot.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrCacheClosed
	}
	c.mu.RUnlock()

	query := fmt.Sprintf(`DELETE FROM %s WHERE cache_key = ?`, c.tableName)
	if _, err := c.db.ExecContext(ctx, query, c.key); err != nil {
		return cartErrors.NewStorageError(cartErrors.OpCacheClear, err)
	}
	return nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}
