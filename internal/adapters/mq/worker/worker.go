// Package worker drains the snapshot queue and persists rank snapshots in
// the background. Snapshot writes are best effort; a failed write is
// logged and dropped, never retried into the request path.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/marcreid1/diverank/internal/adapters/mq/queue"
	"github.com/marcreid1/diverank/pkg/logger"
	"github.com/marcreid1/diverank/pkg/metrics"
)

// Snapshot is what workers read off the queue.
type Snapshot = queue.Snapshot

// Updater persists a rank snapshot into the catalog.
type Updater interface {
	SaveRankSnapshot(ctx context.Context, ranks map[int64]int) error
}

// Queue defines how workers receive snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Snapshot
}

// Worker processes snapshot jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// SnapshotWorker implements Worker for persisting rank snapshots.
type SnapshotWorker struct {
	queue   Queue
	updater Updater
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewSnapshotWorker creates a worker with configuration options.
func NewSnapshotWorker(queue Queue, updater Updater, opts ...Option) *SnapshotWorker {
	w := &SnapshotWorker{
		queue:    queue,
		updater:  updater,
		name:     "snapshot-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("snapshot-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *SnapshotWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case snap, ok := <-jobs:
			if !ok {
				return
			}
			w.persist(ctx, snap)
		}
	}
}

// Shutdown gracefully stops the worker. Safe to call more than once.
func (w *SnapshotWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// persist writes one snapshot. Errors are logged and swallowed: the rank
// delta is a UI hint and must never fail a request.
func (w *SnapshotWorker) persist(ctx context.Context, snap Snapshot) {
	start := time.Now()
	err := w.updater.SaveRankSnapshot(ctx, snap.Ranks)
	metrics.RecordSnapshotWriteLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordSnapshotError()
		w.logger.Warn(ctx, "rank snapshot write failed",
			logger.Int("sites", len(snap.Ranks)),
			logger.Error(err),
		)
		return
	}
	metrics.RecordSnapshotWritten()
}

// Pool manages a small set of snapshot workers.
type Pool struct {
	workers []*SnapshotWorker

	logger logger.Logger
}

// NewPool creates a worker pool. Snapshot persistence is cheap and
// low-volume, so one or two workers is plenty.
func NewPool(workerCount int, queue Queue, updater Updater) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &Pool{
		workers: make([]*SnapshotWorker, workerCount),
		logger:  logger.Get().Named("snapshot-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewSnapshotWorker(
			queue,
			updater,
			WithName("snapshot-worker-"+strconv.Itoa(i)),
		)
	}
	return pool
}

// Start launches all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop shuts down all workers, waiting up to the given timeout.
func (p *Pool) Stop(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown failed", logger.Error(err))
		}
	}
}
