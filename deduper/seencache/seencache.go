// Package seencache persists admitted place ids in a local sqlite file so
// a re-run of the extractor skips businesses already exported by an
// earlier run.
package seencache

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/canleads/places-scraper/deduper"
)

var _ deduper.Deduper = (*cache)(nil)

type Option func(*cache)

func WithLogger(log *zap.Logger) Option {
	return func(c *cache) {
		c.log = log
	}
}

type cache struct {
	db  *sql.DB
	log *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// New opens (creating if needed) the seen-id store at path and preloads
// the ids admitted by previous runs.
func New(path string, opts ...Option) (deduper.Deduper, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	const schema = `CREATE TABLE IF NOT EXISTS seen_places (
		place_id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL
	)`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, err
	}

	ans := cache{
		db:   db,
		log:  zap.NewNop(),
		seen: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(&ans)
	}

	if err := ans.load(); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &ans, nil
}

func (c *cache) load() error {
	rows, err := c.db.Query(`SELECT place_id FROM seen_places`)
	if err != nil {
		return err
	}

	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}

		c.seen[id] = struct{}{}
	}

	return rows.Err()
}

func (c *cache) AddIfNotExists(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[key]; ok {
		return false
	}

	c.seen[key] = struct{}{}

	const q = `INSERT OR IGNORE INTO seen_places (place_id, created_at) VALUES (?, ?)`

	// A write failure must not admit the id twice within this run; the
	// in-memory set above already recorded it. The next run will see the
	// id again, so the miss is worth a warning.
	if _, err := c.db.ExecContext(ctx, q, key, time.Now().UTC()); err != nil {
		c.log.Warn("seen cache write failed", zap.String("place_id", key), zap.Error(err))
	}

	return true
}

func (c *cache) Close() error {
	return c.db.Close()
}
