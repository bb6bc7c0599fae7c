// Package queue buffers rank snapshots between the leaderboard read path
// and the background writer. Snapshot persistence is best effort: a full
// queue drops the job rather than delaying the response.
package queue

import (
	"context"
	"sync"

	"github.com/marcreid1/diverank/internal/domain/model"
	"github.com/marcreid1/diverank/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 1024
)

// Snapshot is the payload type flowing through the queue.
type Snapshot = model.RankSnapshot

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot to the queue.
	// Returns false if the queue is full or closed and the job was dropped.
	Enqueue(ctx context.Context, snap Snapshot) bool

	// Dequeue returns a channel receiving snapshots as they arrive.
	// The channel closes when the queue is closed.
	Dequeue(ctx context.Context) <-chan Snapshot

	// Len returns the current number of queued snapshots.
	Len(ctx context.Context) int

	// Close shuts the queue down; no further enqueues are accepted.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Snapshot
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates an in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Snapshot, q.capacity)

	metrics.UpdateSnapshotQueueSize(0)
	return q
}

// Enqueue adds a snapshot, never blocking the caller.
func (q *InMemoryQueue) Enqueue(ctx context.Context, snap Snapshot) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordSnapshotDropped()
		return false
	}

	select {
	case q.jobs <- snap:
		metrics.UpdateSnapshotQueueSize(len(q.jobs))
		return true
	case <-ctx.Done():
		metrics.RecordSnapshotDropped()
		return false
	default:
		metrics.RecordSnapshotDropped()
		return false // queue is full
	}
}

// Dequeue returns a channel receiving snapshots as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		for snap := range q.jobs {
			select {
			case out <- snap:
				metrics.UpdateSnapshotQueueSize(len(q.jobs))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued snapshots.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.jobs)
}

// Close shuts the queue down.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
