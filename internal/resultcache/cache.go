// Package resultcache memoizes transcription results per (content
// fingerprint, model tier) pair. The in-memory layer lives for the
// process; an optional SQLite store persists entries across runs.
package resultcache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"subgen/internal/logging"
	"subgen/internal/transcribe"
)

// Key identifies one cached result. The fingerprint covers the original
// uploaded bytes, not extracted audio, so identical uploads share a key
// and distinct tiers never collide.
type Key struct {
	Fingerprint string
	Tier        transcribe.Tier
}

func (k Key) String() string {
	return k.Fingerprint + ":" + string(k.Tier)
}

// Entry is an immutable cached result.
type Entry struct {
	Transcript string
	SRT        string
}

// Cache is safe for concurrent use. GetOrCompute guarantees at most one
// concurrent compute per key.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	group   singleflight.Group
	store   *Store
	logger  *slog.Logger
}

// New creates a cache. store may be nil for memory-only operation.
func New(store *Store, logger *slog.Logger) *Cache {
	return &Cache{
		entries: make(map[Key]Entry),
		store:   store,
		logger:  logging.NewComponentLogger(logger, "resultcache"),
	}
}

// Get returns the entry for key, consulting memory first and then the
// persistent store. Store hits are promoted into memory.
func (c *Cache) Get(ctx context.Context, key Key) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return entry, true
	}

	if c.store == nil {
		return Entry{}, false
	}
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("persistent cache read failed",
			logging.String(logging.FieldEventType, "cache_read_failed"),
			logging.String(logging.FieldImpact, "entry will be recomputed"),
			logging.String("fingerprint", key.Fingerprint),
			logging.Error(err))
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return entry, true
}

// Put stores the entry in memory and, when configured, persists it.
func (c *Cache) Put(ctx context.Context, key Key, entry Entry) error {
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Put(ctx, key, entry)
}

// GetOrCompute returns the cached entry for key, running compute on a
// miss. Concurrent callers with the same key share a single compute run;
// the reported hit flag is true whenever the caller did not execute
// compute itself. Compute failures are not cached.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute func(ctx context.Context) (Entry, error)) (Entry, bool, error) {
	if entry, ok := c.Get(ctx, key); ok {
		return entry, true, nil
	}

	computed := false
	value, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Re-check under the flight: another caller may have finished
		// between the fast-path miss and this callback.
		if entry, ok := c.Get(ctx, key); ok {
			return entry, nil
		}
		computed = true
		entry, err := compute(ctx)
		if err != nil {
			return Entry{}, err
		}
		if putErr := c.Put(ctx, key, entry); putErr != nil {
			c.logger.Warn("persistent cache write failed",
				logging.String(logging.FieldEventType, "cache_write_failed"),
				logging.String(logging.FieldImpact, "result not persisted; next run recomputes"),
				logging.String("fingerprint", key.Fingerprint),
				logging.Error(putErr))
		}
		return entry, nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	return value.(Entry), !computed, nil
}
