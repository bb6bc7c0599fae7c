package ranking_test

import (
	"testing"

	"github.com/marcreid1/diverank/internal/domain/model"
	ranking "github.com/marcreid1/diverank/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStandings(t *testing.T) {
	Convey("Given a catalog with distinct ratings", t, func() {
		sites := []model.DiveSite{
			{ID: 1, Name: "Richelieu Rock", Rating: 1500},
			{ID: 2, Name: "Sail Rock", Rating: 1600},
			{ID: 3, Name: "Hin Daeng", Rating: 1400},
		}

		standings := ranking.Standings(sites)

		Convey("Then sites are ordered by rating descending", func() {
			So(len(standings), ShouldEqual, 3)
			So(standings[0].Site.ID, ShouldEqual, 2)
			So(standings[1].Site.ID, ShouldEqual, 1)
			So(standings[2].Site.ID, ShouldEqual, 3)
		})

		Convey("Then ranks are contiguous from 1", func() {
			for i, st := range standings {
				So(st.Rank, ShouldEqual, i+1)
				So(st.Site.CurrentRank, ShouldEqual, i+1)
			}
		})

		Convey("Then sites without a prior rank report no movement", func() {
			for _, st := range standings {
				So(st.RankChange, ShouldEqual, 0)
			}
		})

		Convey("Then the input slice is left untouched", func() {
			So(sites[0].ID, ShouldEqual, 1)
			So(sites[0].CurrentRank, ShouldEqual, 0)
		})
	})

	Convey("Given sites with stored previous ranks", t, func() {
		sites := []model.DiveSite{
			{ID: 1, Rating: 1450, PreviousRank: 1}, // fell from the top
			{ID: 2, Rating: 1550, PreviousRank: 3}, // climbed two places
			{ID: 3, Rating: 1500, PreviousRank: 2}, // held steady
		}

		standings := ranking.Standings(sites)

		Convey("Then rank change is previous minus current", func() {
			So(standings[0].Site.ID, ShouldEqual, 2)
			So(standings[0].RankChange, ShouldEqual, 2)

			So(standings[1].Site.ID, ShouldEqual, 3)
			So(standings[1].RankChange, ShouldEqual, 0)

			So(standings[2].Site.ID, ShouldEqual, 1)
			So(standings[2].RankChange, ShouldEqual, -2)
		})
	})

	Convey("Given tied ratings", t, func() {
		sites := []model.DiveSite{
			{ID: 7, Rating: 1500},
			{ID: 3, Rating: 1500},
			{ID: 5, Rating: 1500},
		}

		standings := ranking.Standings(sites)

		Convey("Then ties break by id ascending for determinism", func() {
			So(standings[0].Site.ID, ShouldEqual, 3)
			So(standings[1].Site.ID, ShouldEqual, 5)
			So(standings[2].Site.ID, ShouldEqual, 7)
		})
	})

	Convey("Given an empty catalog", t, func() {
		So(ranking.Standings(nil), ShouldBeEmpty)
	})
}

func TestSnapshot(t *testing.T) {
	Convey("Given computed standings", t, func() {
		standings := ranking.Standings([]model.DiveSite{
			{ID: 1, Rating: 1400},
			{ID: 2, Rating: 1600},
		})

		ranks := ranking.Snapshot(standings)

		Convey("Then it maps every site id to its rank", func() {
			So(ranks, ShouldResemble, map[int64]int{2: 1, 1: 2})
		})
	})
}
