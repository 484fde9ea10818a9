package dataset

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/google/uuid"
)

// Snapshot is one loaded version of the dataset. It is never mutated.
type Snapshot struct {
	ID       string
	LoadedAt time.Time
	Table    *table.Table
}

// Cache holds the latest snapshot and reloads it once the TTL has passed.
// A zero TTL never expires; Refresh always reloads.
type Cache struct {
	loader Loader
	ttl    time.Duration
	now    func() time.Time

	mu   sync.RWMutex
	snap *Snapshot
}

// NewCache wraps loader with a TTL cache.
func NewCache(loader Loader, ttl time.Duration) *Cache {
	return &Cache{loader: loader, ttl: ttl, now: time.Now}
}

// WithClock replaces the cache clock. Intended for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get returns the current snapshot, loading it when absent or stale.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if snap != nil && (c.ttl <= 0 || c.now().Sub(snap.LoadedAt) < c.ttl) {
		return snap, nil
	}
	return c.Refresh(ctx)
}

// Refresh loads a new snapshot. On failure the previous snapshot stays
// published.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	t, err := c.loader.Load(ctx)
	if err != nil {
		slog.Warn("dataset refresh failed", "error", err)
		return nil, err
	}
	snap := &Snapshot{ID: uuid.NewString(), LoadedAt: c.now(), Table: t}
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	slog.Info("dataset snapshot published", "snapshot", snap.ID, "rows", t.Len())
	return snap, nil
}

// Current returns the published snapshot without loading.
func (c *Cache) Current() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}
