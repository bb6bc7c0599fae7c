package service_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	repository "github.com/marcreid1/diverank/internal/adapters/repository"
	service "github.com/marcreid1/diverank/internal/app"
	"github.com/marcreid1/diverank/internal/domain/matchup"
	"github.com/marcreid1/diverank/internal/domain/model"
	"github.com/marcreid1/diverank/internal/domain/pair"
	logging "github.com/marcreid1/diverank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logging.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeStore implements repository.Store in memory for service-level tests.
type fakeStore struct {
	mu          sync.Mutex
	sites       map[int64]model.DiveSite
	comparisons []model.Comparison
	nextID      int64
	snapshots   []map[int64]int
	recordErr   error
	closed      bool
}

func newFakeStore(siteIDs ...int64) *fakeStore {
	f := &fakeStore{sites: make(map[int64]model.DiveSite)}
	for _, id := range siteIDs {
		f.sites[id] = model.DiveSite{ID: id, Name: "site", Rating: model.DefaultRating}
	}
	return f
}

func (f *fakeStore) ListSites(context.Context) ([]model.DiveSite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.DiveSite, 0, len(f.sites))
	for _, s := range f.sites {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) GetSite(_ context.Context, id int64) (model.DiveSite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sites[id]
	if !ok {
		return model.DiveSite{}, repository.ErrSiteNotFound
	}
	return s, nil
}

func (f *fakeStore) SeedSites(_ context.Context, sites []model.DiveSite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range sites {
		if _, ok := f.sites[s.ID]; !ok {
			f.sites[s.ID] = s
		}
	}
	return nil
}

func (f *fakeStore) RecordComparison(_ context.Context, winnerID, loserID int64, actorID *string) (model.Comparison, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return model.Comparison{}, f.recordErr
	}
	if winnerID == loserID {
		return model.Comparison{}, repository.ErrSameSite
	}
	if _, ok := f.sites[winnerID]; !ok {
		return model.Comparison{}, repository.ErrSiteNotFound
	}
	if _, ok := f.sites[loserID]; !ok {
		return model.Comparison{}, repository.ErrSiteNotFound
	}
	key := pair.NewKey(winnerID, loserID)
	if actorID != nil {
		for _, c := range f.comparisons {
			if c.ActorID != nil && *c.ActorID == *actorID && pair.NewKey(c.WinnerID, c.LoserID) == key {
				return model.Comparison{}, repository.ErrDuplicateComparison
			}
		}
	}
	f.nextID++
	cmp := model.Comparison{ID: f.nextID, WinnerID: winnerID, LoserID: loserID, PointsChanged: 16, ActorID: actorID}
	f.comparisons = append(f.comparisons, cmp)
	return cmp, nil
}

func (f *fakeStore) CountVotedPairs(_ context.Context, actorID *string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pairs(actorID)), nil
}

func (f *fakeStore) ListVotedPairs(_ context.Context, actorID *string) (map[pair.Key]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pairs(actorID), nil
}

func (f *fakeStore) pairs(actorID *string) map[pair.Key]struct{} {
	out := make(map[pair.Key]struct{})
	for _, c := range f.comparisons {
		if actorID != nil && (c.ActorID == nil || *c.ActorID != *actorID) {
			continue
		}
		out[pair.NewKey(c.WinnerID, c.LoserID)] = struct{}{}
	}
	return out
}

func (f *fakeStore) ListOpponents(_ context.Context, siteID int64, actorID *string) (map[int64]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]struct{})
	for _, c := range f.comparisons {
		if actorID != nil && (c.ActorID == nil || *c.ActorID != *actorID) {
			continue
		}
		if c.WinnerID == siteID {
			out[c.LoserID] = struct{}{}
		}
		if c.LoserID == siteID {
			out[c.WinnerID] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteActorComparisons(_ context.Context, actorID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []model.Comparison
	var deleted int64
	for _, c := range f.comparisons {
		if c.ActorID != nil && *c.ActorID == actorID {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	f.comparisons = kept
	return deleted, nil
}

func (f *fakeStore) SaveRankSnapshot(_ context.Context, ranks map[int64]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, ranks)
	return nil
}

func (f *fakeStore) RebuildRatings(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sites), nil
}

func (f *fakeStore) CountComparisons(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.comparisons)), nil
}

func (f *fakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func startService(t *testing.T, store repository.Store) *service.Service {
	t.Helper()
	svc := service.New(service.WithStore(store))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("starting service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func actor(id string) *string { return &id }

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service", t, func() {
		Convey("When started without a store", func() {
			svc := service.New()

			Convey("Then Start should fail", func() {
				So(svc.Start(context.Background()), ShouldEqual, service.ErrNoStore)
			})
		})

		Convey("When started and stopped", func() {
			store := newFakeStore(1, 2)
			svc := service.New(service.WithStore(store))

			So(svc.Start(context.Background()), ShouldBeNil)
			// Second start is a no-op.
			So(svc.Start(context.Background()), ShouldBeNil)

			svc.Stop()

			Convey("Then the store is closed", func() {
				So(store.closed, ShouldBeTrue)
			})
		})
	})
}

func TestService_SelectMatchup(t *testing.T) {
	Convey("Given a started service over three sites", t, func() {
		store := newFakeStore(1, 2, 3)
		svc := startService(t, store)
		ctx := context.Background()

		Convey("When asking for an anonymous matchup", func() {
			m, err := svc.SelectMatchup(ctx, nil, nil)

			Convey("Then two distinct sites come back", func() {
				So(err, ShouldBeNil)
				So(m.SiteA.ID, ShouldNotEqual, m.SiteB.ID)
			})
		})

		Convey("When an identified actor exhausts the catalog", func() {
			a := actor("alice")
			for i := 0; i < 3; i++ {
				m, err := svc.SelectMatchup(ctx, a, nil)
				So(err, ShouldBeNil)
				_, err = svc.RecordComparison(ctx, m.SiteA.ID, m.SiteB.ID, a)
				So(err, ShouldBeNil)
			}

			_, err := svc.SelectMatchup(ctx, a, nil)

			Convey("Then the next request reports completion", func() {
				So(errors.Is(err, matchup.ErrAllMatchupsCompleted), ShouldBeTrue)
			})
		})

		Convey("When a champion hint is supplied", func() {
			champ := &matchup.Champion{SiteID: 2, Side: matchup.SideB}
			m, err := svc.SelectMatchup(ctx, nil, champ)

			Convey("Then the champion keeps its slot", func() {
				So(err, ShouldBeNil)
				So(m.SiteB.ID, ShouldEqual, 2)
			})
		})
	})
}

func TestService_RecordComparison(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := newFakeStore(1, 2, 3)
		svc := startService(t, store)
		ctx := context.Background()

		Convey("When recording a valid identified vote", func() {
			cmp, err := svc.RecordComparison(ctx, 1, 2, actor("alice"))

			Convey("Then the comparison is stored", func() {
				So(err, ShouldBeNil)
				So(cmp.ID, ShouldBeGreaterThan, 0)
				So(cmp.PointsChanged, ShouldEqual, 16)
			})

			Convey("And repeating the pair in either order is rejected", func() {
				_, err := svc.RecordComparison(ctx, 1, 2, actor("alice"))
				So(errors.Is(err, repository.ErrDuplicateComparison), ShouldBeTrue)

				_, err = svc.RecordComparison(ctx, 2, 1, actor("alice"))
				So(errors.Is(err, repository.ErrDuplicateComparison), ShouldBeTrue)
			})
		})

		Convey("When voting a site against itself", func() {
			_, err := svc.RecordComparison(ctx, 1, 1, nil)

			Convey("Then it fails without consulting the store", func() {
				So(errors.Is(err, repository.ErrSameSite), ShouldBeTrue)
				So(len(store.comparisons), ShouldEqual, 0)
			})
		})

		Convey("When the store fails for a non-duplicate reason", func() {
			store.recordErr = errors.New("connection lost")
			_, err := svc.RecordComparison(ctx, 1, 2, actor("bob"))
			So(err, ShouldNotBeNil)

			Convey("Then the pair stays votable after the store recovers", func() {
				store.recordErr = nil
				_, err := svc.RecordComparison(ctx, 1, 2, actor("bob"))
				So(err, ShouldBeNil)
			})
		})

		Convey("When anonymous voters repeat a pair", func() {
			_, err := svc.RecordComparison(ctx, 1, 2, nil)
			So(err, ShouldBeNil)
			_, err = svc.RecordComparison(ctx, 1, 2, nil)

			Convey("Then the repeat is accepted", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestService_Rankings(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := newFakeStore(1, 2, 3)
		svc := startService(t, store)
		ctx := context.Background()

		Convey("When requesting rankings", func() {
			standings, err := svc.Rankings(ctx)

			Convey("Then every site appears with a contiguous rank", func() {
				So(err, ShouldBeNil)
				So(len(standings), ShouldEqual, 3)
				for i, st := range standings {
					So(st.Rank, ShouldEqual, i+1)
				}
			})
		})
	})
}

func TestService_ResetHistory(t *testing.T) {
	Convey("Given a service with recorded votes", t, func() {
		store := newFakeStore(1, 2, 3)
		svc := startService(t, store)
		ctx := context.Background()

		a := actor("alice")
		_, err := svc.RecordComparison(ctx, 1, 2, a)
		So(err, ShouldBeNil)
		_, err = svc.RecordComparison(ctx, 2, 3, a)
		So(err, ShouldBeNil)

		Convey("When resetting the actor's history", func() {
			deleted, err := svc.ResetHistory(ctx, "alice")

			Convey("Then the votes are gone and the pairs votable again", func() {
				So(err, ShouldBeNil)
				So(deleted, ShouldEqual, 2)

				_, err := svc.RecordComparison(ctx, 1, 2, a)
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestService_RebuildRatings(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := newFakeStore(1, 2)
		svc := startService(t, store)

		Convey("When rebuilding ratings", func() {
			n, err := svc.RebuildRatings(context.Background())

			Convey("Then the recomputed site count comes back", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := newFakeStore(1, 2)
		svc := startService(t, store)

		stats := svc.GetStats()

		Convey("Then it reports the running state", func() {
			So(stats["started"], ShouldBeTrue)
			So(stats["catalogSize"], ShouldEqual, 2)
			So(stats["comparisonsTotal"], ShouldEqual, 0)
		})
	})
}
