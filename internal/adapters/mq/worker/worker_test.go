package worker_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	worker "github.com/marcreid1/diverank/internal/adapters/mq/worker"
	logging "github.com/marcreid1/diverank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logging.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// Mock implementations for testing.
type mockQueue struct {
	snapChan chan worker.Snapshot
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		snapChan: make(chan worker.Snapshot, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan worker.Snapshot {
	return mq.snapChan
}

func (mq *mockQueue) add(snap worker.Snapshot) {
	mq.snapChan <- snap
}

type mockUpdater struct {
	mu    sync.Mutex
	saved []map[int64]int
	err   error
}

func (mu *mockUpdater) SaveRankSnapshot(ctx context.Context, ranks map[int64]int) error {
	mu.mu.Lock()
	defer mu.mu.Unlock()
	if mu.err != nil {
		return mu.err
	}
	mu.saved = append(mu.saved, ranks)
	return nil
}

func (mu *mockUpdater) count() int {
	mu.mu.Lock()
	defer mu.mu.Unlock()
	return len(mu.saved)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestSnapshotWorker(t *testing.T) {
	convey.Convey("Given a snapshot worker", t, func() {
		q := newMockQueue()
		u := &mockUpdater{}
		w := worker.NewSnapshotWorker(q, u, worker.WithName("test-worker"))

		convey.Convey("When a snapshot arrives", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			q.add(worker.Snapshot{Ranks: map[int64]int{1: 1, 2: 2}, ComputedAt: time.Now()})

			convey.Convey("Then it should be persisted", func() {
				convey.So(waitFor(func() bool { return u.count() == 1 }), convey.ShouldBeTrue)
			})

			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
		})

		convey.Convey("When the updater fails", func() {
			u.err = errors.New("database gone")
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			q.add(worker.Snapshot{Ranks: map[int64]int{1: 1}, ComputedAt: time.Now()})
			q.add(worker.Snapshot{Ranks: map[int64]int{1: 2}, ComputedAt: time.Now()})

			convey.Convey("Then the worker keeps draining without persisting", func() {
				convey.So(waitFor(func() bool { return len(q.snapChan) == 0 }), convey.ShouldBeTrue)
				convey.So(u.count(), convey.ShouldEqual, 0)
			})

			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
		})

		convey.Convey("When shut down twice", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		q := newMockQueue()
		u := &mockUpdater{}

		convey.Convey("When started with several workers", func() {
			p := worker.NewPool(3, q, u)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			p.Start(ctx)

			for i := 0; i < 5; i++ {
				q.add(worker.Snapshot{Ranks: map[int64]int{1: i + 1}, ComputedAt: time.Now()})
			}

			convey.Convey("Then every snapshot is persisted exactly once", func() {
				convey.So(waitFor(func() bool { return u.count() == 5 }), convey.ShouldBeTrue)
			})

			p.Stop(time.Second)
		})

		convey.Convey("When created with a non-positive count", func() {
			p := worker.NewPool(0, q, u)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			p.Start(ctx)

			q.add(worker.Snapshot{Ranks: map[int64]int{1: 1}, ComputedAt: time.Now()})

			convey.Convey("Then it still runs at least one worker", func() {
				convey.So(waitFor(func() bool { return u.count() == 1 }), convey.ShouldBeTrue)
			})

			p.Stop(time.Second)
		})
	})
}
