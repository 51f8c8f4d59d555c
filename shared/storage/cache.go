package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS movies (
	id           INTEGER PRIMARY KEY,
	title        TEXT NOT NULL,
	overview     TEXT,
	release_date TEXT,
	genres       TEXT NOT NULL,
	cached_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS movie_credits (
	movie_id  INTEGER PRIMARY KEY,
	"cast"    TEXT NOT NULL,
	crew      TEXT NOT NULL,
	cached_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS discover_cache (
	query_params TEXT PRIMARY KEY,
	results      TEXT NOT NULL,
	cached_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS generic_cache (
	key       TEXT PRIMARY KEY,
	value     TEXT NOT NULL,
	cached_at INTEGER NOT NULL
);
`

// Cache is the persistent key/value store backing every metadata lookup.
// Expiry is lazy: a row older than the TTL passed to a read is deleted by that read.
// There is no locking across processes; concurrent writers race on upsert.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

type Config struct {
	Path string
}

type Option func(*Cache)

// WithClock replaces time.Now, used to age records in tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// CacheError wraps every storage failure. Callers treat it as fatal.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// IsCacheError reports whether err is or wraps a *CacheError
func IsCacheError(err error) bool {
	var cacheErr *CacheError
	return errors.As(err, &cacheErr)
}

// Open creates the data directory if needed, opens the SQLite file and applies the schema
func Open(cfg Config, opts ...Option) (*Cache, error) {
	if cfg.Path == "" {
		return nil, &CacheError{Op: "open", Err: errors.New("cache path is required")}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, &CacheError{Op: "open", Err: fmt.Errorf("create data directory: %w", err)}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, &CacheError{Op: "open", Err: err}
	}
	// one writer, and reads never hold a connection while the same call writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, &CacheError{Op: "open", Err: fmt.Errorf("pragma journal_mode: %w", err)}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &CacheError{Op: "open", Err: fmt.Errorf("apply schema: %w", err)}
	}

	c := &Cache{db: db, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Set upserts value under key; the last write wins and resets the timestamp
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return &CacheError{Op: "encode", Key: key, Err: err}
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO generic_cache (key, value, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		  value = excluded.value,
		  cached_at = excluded.cached_at
	`, key, string(payload), c.now().UnixMilli())
	if err != nil {
		return &CacheError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Get decodes the value stored under key into dest.
// With ttl > 0 a record older than ttl is deleted and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, dest any) (bool, error) {
	var (
		payload  string
		cachedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT value, cached_at FROM generic_cache WHERE key = ?`, key,
	).Scan(&payload, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &CacheError{Op: "get", Key: key, Err: err}
	}

	if c.expired(cachedAt, ttl) {
		return false, c.evict(ctx, "generic_cache", "key", key)
	}

	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return false, &CacheError{Op: "decode", Key: key, Err: err}
	}
	return true, nil
}

// GetJSON is Get for callers that want the decoded value back
func GetJSON[T any](ctx context.Context, c *Cache, key string, ttl time.Duration) (T, bool, error) {
	var value T
	ok, err := c.Get(ctx, key, ttl, &value)
	return value, ok, err
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.evict(ctx, "generic_cache", "key", key)
}

func (c *Cache) expired(cachedAt int64, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return c.now().Sub(time.UnixMilli(cachedAt)) > ttl
}

// table and column are package constants, never caller input
func (c *Cache) evict(ctx context.Context, table, column string, key any) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, column)
	if _, err := c.db.ExecContext(ctx, query, key); err != nil {
		return &CacheError{Op: "delete", Key: fmt.Sprint(key), Err: err}
	}
	return nil
}
