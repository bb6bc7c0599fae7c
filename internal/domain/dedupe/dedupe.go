// Package dedupe tracks (actor, pair) keys that already resolved, so
// obvious duplicate votes are rejected without a store round trip. The
// cache is advisory only: the unique index inside the recorder's
// transaction remains the authority, so eviction can never double-apply a
// comparison, it just costs one extra database check.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Deduper records resolved vote keys for fast duplicate rejection.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records it
	// if not. Returns true if key was already present.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a single key, used when a recorded vote failed to
	// commit for a non-duplicate reason and may be retried.
	Unrecord(ctx context.Context, key string)

	// ForgetPrefix drops every key with the given prefix. Used when an
	// actor's history is reset and their pairs become votable again.
	ForgetPrefix(ctx context.Context, prefix string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a FIFO eviction ring.
// Bounded mode (maxSize > 0) evicts the oldest key once full; unbounded
// mode keeps everything.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // FIFO eviction order, bounded mode only
	head    int      // index of oldest live entry in order
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize {
			d.evictOldest()
		}
		d.order = append(d.order, key)
		d.compact()
	}
	d.seen[key] = struct{}{}
	d.size.Store(int64(len(d.seen)))
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	d.size.Store(int64(len(d.seen)))
}

func (d *inMemoryDeduper) ForgetPrefix(_ context.Context, prefix string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.seen {
		if strings.HasPrefix(key, prefix) {
			delete(d.seen, key)
		}
	}
	d.size.Store(int64(len(d.seen)))
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// evictOldest drops the oldest key still present in the map. Keys removed
// earlier by Unrecord/ForgetPrefix are skipped. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldest() {
	for d.head < len(d.order) {
		key := d.order[d.head]
		d.head++
		if _, ok := d.seen[key]; ok {
			delete(d.seen, key)
			return
		}
	}
	// Ring exhausted without finding a live key; start fresh.
	d.order = d.order[:0]
	d.head = 0
}

// compact reclaims the consumed front of the eviction ring once it
// dominates the slice. Caller holds d.mu.
func (d *inMemoryDeduper) compact() {
	if d.head > 0 && d.head*2 >= len(d.order) {
		d.order = append(d.order[:0], d.order[d.head:]...)
		d.head = 0
	}
}

// VoteKey builds the cache key for an actor's normalized pair.
func VoteKey(actorID, pairKey string) string {
	return actorID + "|" + pairKey
}

// ActorPrefix is the ForgetPrefix argument covering all of an actor's keys.
func ActorPrefix(actorID string) string {
	return actorID + "|"
}
