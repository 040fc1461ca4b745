package movement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/movement"
	"github.com/okian/footelo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDiff(t *testing.T) {
	Convey("Given rosters {A,B,C} then {A,B,D}", t, func() {
		relegated, promoted := movement.Diff(movement.NewRoster("A", "B", "C"), movement.NewRoster("A", "B", "D"))

		Convey("Then C went down and D came up", func() {
			So(relegated, ShouldResemble, []string{"C"})
			So(promoted, ShouldResemble, []string{"D"})
		})
	})

	Convey("Given a roster that shrank", t, func() {
		relegated, promoted := movement.Diff(movement.NewRoster("A", "B", "C", "E"), movement.NewRoster("A", "B", "D"))

		Convey("Then sizes may differ and results are sorted", func() {
			So(relegated, ShouldResemble, []string{"C", "E"})
			So(promoted, ShouldResemble, []string{"D"})
		})
	})

	Convey("Given identical rosters", t, func() {
		relegated, promoted := movement.Diff(movement.NewRoster("A", "B"), movement.NewRoster("B", "A"))
		So(relegated, ShouldBeEmpty)
		So(promoted, ShouldBeEmpty)
	})
}

func TestRosterOf(t *testing.T) {
	Convey("Given matches including a blank team", t, func() {
		d := time.Date(2023, 8, 11, 0, 0, 0, 0, time.UTC)
		r := movement.RosterOf([]model.Match{
			{Date: d, HomeTeam: "A", AwayTeam: "B"},
			{Date: d, HomeTeam: "C", AwayTeam: ""},
		})

		Convey("Then home and away teams are collected", func() {
			So(len(r), ShouldEqual, 3)
			So(r.Has("B"), ShouldBeTrue)
			So(r.Has(""), ShouldBeFalse)
		})
	})
}

func TestIdentify(t *testing.T) {
	ctx := context.Background()
	id := movement.NewIdentifier(movement.WithLogger(logger.Nop()))

	Convey("Given both tiers for two seasons", t, func() {
		r := movement.Rosters{
			PrevTier1: movement.NewRoster("A", "B", "C"),
			CurrTier1: movement.NewRoster("A", "B", "X"),
			PrevTier2: movement.NewRoster("X", "Y", "Z"),
			CurrTier2: movement.NewRoster("C", "Y", "N"),
		}
		table, err := id.Identify(ctx, movement.TransitionID("2223", "2324"), r)

		Convey("Then every tier reports its movements", func() {
			So(err, ShouldBeNil)
			So(table.Teams(model.Tier1, model.Relegated), ShouldResemble, []string{"C"})
			So(table.Teams(model.Tier1, model.Promoted), ShouldResemble, []string{"X"})
			So(table.Teams(model.Tier2, model.Relegated), ShouldResemble, []string{"X", "Z"})
			So(table.Teams(model.Tier2, model.Promoted), ShouldResemble, []string{"C", "N"})
			So(table[0].Transition, ShouldEqual, "2223_2324")
		})

		Convey("Then filtering by transition keeps all rows", func() {
			So(len(table.ForTransition("2223_2324")), ShouldEqual, len(table))
			So(table.ForTransition("2122_2223"), ShouldBeEmpty)
		})
	})

	Convey("Given unequal promoted and relegated counts", t, func() {
		r := movement.Rosters{
			PrevTier1: movement.NewRoster("A", "B", "C", "D"),
			CurrTier1: movement.NewRoster("A", "B", "X"),
			PrevTier2: movement.NewRoster("X"),
			CurrTier2: movement.NewRoster("C", "D"),
		}
		table, err := id.Identify(ctx, "a_b", r)

		Convey("Then it is a warning, not an error", func() {
			So(err, ShouldBeNil)
			So(len(table.Teams(model.Tier1, model.Relegated)), ShouldEqual, 2)
			So(len(table.Teams(model.Tier1, model.Promoted)), ShouldEqual, 1)
		})
	})

	Convey("Given a missing previous roster", t, func() {
		r := movement.Rosters{
			PrevTier2: movement.NewRoster("X"),
			CurrTier1: movement.NewRoster("A"),
			CurrTier2: movement.NewRoster("X"),
		}
		table, err := id.Identify(ctx, "a_b", r)

		Convey("Then the transition is unavailable", func() {
			So(table, ShouldBeNil)
			So(errors.Is(err, movement.ErrUnavailable), ShouldBeTrue)
		})
	})
}

func TestTableClean(t *testing.T) {
	Convey("Given a table with a blank team", t, func() {
		table := movement.Table{
			{Transition: "a_b", Tier: model.Tier1, Team: "A", Status: model.Promoted},
			{Transition: "a_b", Tier: model.Tier1, Team: "  ", Status: model.Relegated},
		}
		So(len(table.Clean()), ShouldEqual, 1)
	})
}
