// Package cache persists the last fetched catalog snapshot in a local
// SQLite file, so the terminal can render the catalog immediately on start
// and refresh in the background even when the remote service is slow.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"abasto/internal/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cache_items (
	id      INTEGER PRIMARY KEY,
	payload TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cache_categories (
	id      INTEGER PRIMARY KEY,
	payload TEXT NOT NULL
);
`

// Cache is the on-disk snapshot store.
type Cache struct {
	db *sqlx.DB
}

// Open opens or creates the cache database at path. ":memory:" works for
// tests.
func Open(path string) (*Cache, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Save replaces the cached snapshot atomically.
func (c *Cache) Save(ctx context.Context, items []catalog.Item, cats []catalog.Category, fetchedAt time.Time) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_items`); err != nil {
		return fmt.Errorf("clear cached items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_categories`); err != nil {
		return fmt.Errorf("clear cached categories: %w", err)
	}

	for _, it := range items {
		payload, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("marshal cached item %d: %w", it.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cache_items (id, payload) VALUES (?, ?)`, it.ID, payload); err != nil {
			return fmt.Errorf("insert cached item %d: %w", it.ID, err)
		}
	}
	for _, cat := range cats {
		payload, err := json.Marshal(cat)
		if err != nil {
			return fmt.Errorf("marshal cached category %d: %w", cat.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cache_categories (id, payload) VALUES (?, ?)`, cat.ID, payload); err != nil {
			return fmt.Errorf("insert cached category %d: %w", cat.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cache_meta (key, value) VALUES ('fetched_at', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fetchedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("store cache timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache tx: %w", err)
	}
	return nil
}

// Load returns the cached snapshot, or ok false when the cache is empty.
func (c *Cache) Load(ctx context.Context) (items []catalog.Item, cats []catalog.Category, fetchedAt time.Time, ok bool, err error) {
	var stamp string
	err = c.db.GetContext(ctx, &stamp, `SELECT value FROM cache_meta WHERE key = 'fetched_at'`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, nil, time.Time{}, false, fmt.Errorf("read cache timestamp: %w", err)
	}
	fetchedAt, err = time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, nil, time.Time{}, false, fmt.Errorf("parse cache timestamp: %w", err)
	}

	var rows []string
	if err := c.db.SelectContext(ctx, &rows, `SELECT payload FROM cache_items ORDER BY id`); err != nil {
		return nil, nil, time.Time{}, false, fmt.Errorf("read cached items: %w", err)
	}
	for _, raw := range rows {
		var it catalog.Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return nil, nil, time.Time{}, false, fmt.Errorf("unmarshal cached item: %w", err)
		}
		items = append(items, it)
	}

	rows = rows[:0]
	if err := c.db.SelectContext(ctx, &rows, `SELECT payload FROM cache_categories ORDER BY id`); err != nil {
		return nil, nil, time.Time{}, false, fmt.Errorf("read cached categories: %w", err)
	}
	for _, raw := range rows {
		var cat catalog.Category
		if err := json.Unmarshal([]byte(raw), &cat); err != nil {
			return nil, nil, time.Time{}, false, fmt.Errorf("unmarshal cached category: %w", err)
		}
		cats = append(cats, cat)
	}

	return items, cats, fetchedAt, true, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
