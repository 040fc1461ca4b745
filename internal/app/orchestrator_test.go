package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	service "github.com/okian/footelo/internal/app"
	"github.com/okian/footelo/internal/domain/continuity"
	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/movement"
	"github.com/okian/footelo/internal/domain/season"
	"github.com/okian/footelo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func on(year, day int) time.Time {
	return time.Date(year, time.August, 10+day, 0, 0, 0, 0, time.UTC)
}

func fixture(d time.Time, home, away string, hg, ag int) model.Match {
	return model.Match{Date: d, RawDate: d.Format("02/01/2006"), HomeTeam: home, AwayTeam: away, HomeGoals: hg, AwayGoals: ag}
}

// league builds two seasons where C goes down, X comes up, Z drops out of
// the second tier and N joins it from below.
func league() []service.SeasonInput {
	return []service.SeasonInput{
		{
			Code: "2122",
			Matches: map[string][]model.Match{
				"SP1": {
					fixture(on(2021, 0), "A", "B", 2, 0),
					fixture(on(2021, 7), "B", "C", 1, 1),
					fixture(on(2021, 14), "C", "A", 0, 1),
				},
				"SP2": {
					fixture(on(2021, 0), "X", "Y", 3, 0),
					fixture(on(2021, 7), "Y", "Z", 0, 0),
					fixture(on(2021, 14), "Z", "X", 1, 2),
				},
			},
		},
		{
			Code: "2223",
			Matches: map[string][]model.Match{
				"SP1": {
					fixture(on(2022, 0), "A", "X", 1, 1),
					fixture(on(2022, 7), "X", "B", 2, 1),
					fixture(on(2022, 14), "B", "A", 0, 0),
				},
				"SP2": {
					fixture(on(2022, 0), "C", "N", 2, 1),
					fixture(on(2022, 7), "N", "Y", 1, 0),
					fixture(on(2022, 14), "Y", "C", 1, 1),
				},
			},
		},
	}
}

// finals rates one season/division on its own, unseeded.
func finals(in service.SeasonInput, div string) model.Snapshot {
	p := season.NewProcessor(season.WithLogger(logger.Nop()))
	return p.Run(context.Background(), in.Matches[div], nil).Final
}

// firstRating finds the pre-match rating of team in its first match of a season.
func firstRating(rows []model.EnrichedMatch, seasonCode, team string) float64 {
	for _, r := range rows {
		if r.Season != seasonCode {
			continue
		}
		if r.HomeTeam == team {
			return r.HomeRating
		}
		if r.AwayTeam == team {
			return r.AwayRating
		}
	}
	return -1
}

func newOrchestrator(transfer bool, opts ...service.OrchestratorOption) *service.Orchestrator {
	base := []service.OrchestratorOption{
		service.WithDivisions("SP1", "SP2"),
		service.WithDecay(0.9, 0.8),
		service.WithTransfer(transfer),
		service.WithOrchestratorLogger(logger.Nop()),
	}
	return service.NewOrchestrator(append(base, opts...)...)
}

func rosterSource(seasons []service.SeasonInput) service.MovementSource {
	id := movement.NewIdentifier(movement.WithLogger(logger.Nop()))
	return service.NewRosterSource(id, []string{"SP1", "SP2"}, seasons)
}

func TestOrchestrator_Continuity(t *testing.T) {
	ctx := context.Background()
	seasons := league()
	tier1 := model.DecayConfig{Factor: 0.9, RegressionPoint: 1500}
	tier2 := model.DecayConfig{Factor: 0.8, RegressionPoint: 1500}
	f1 := finals(seasons[0], "SP1")
	f2 := finals(seasons[0], "SP2")

	Convey("Given two seasons without transfer", t, func() {
		res, err := newOrchestrator(false).Run(ctx, seasons, nil)
		So(err, ShouldBeNil)
		rows1 := res.Divisions["SP1"]

		Convey("Then the first season is unseeded", func() {
			So(firstRating(rows1, "2122", "A"), ShouldEqual, 1500.0)
		})

		Convey("Then staying teams start from their decayed finals", func() {
			So(firstRating(rows1, "2223", "A"), ShouldAlmostEqual, continuity.Regress(f1["A"], tier1), 1e-9)
			So(firstRating(res.Divisions["SP2"], "2223", "Y"), ShouldAlmostEqual, continuity.Regress(f2["Y"], tier2), 1e-9)
		})

		Convey("Then newcomers start at the initial rating and are reported", func() {
			So(firstRating(rows1, "2223", "X"), ShouldEqual, 1500.0)
			var unseeded []string
			for _, s := range res.Seasons {
				if s.Season == "2223" && s.Division == "SP1" {
					unseeded = s.Unseeded
				}
			}
			So(unseeded, ShouldResemble, []string{"X"})
			So(res.Transfers, ShouldBeEmpty)
		})

		Convey("Then each division's output is in date order", func() {
			for i := 1; i < len(rows1); i++ {
				So(rows1[i].Date.Before(rows1[i-1].Date), ShouldBeFalse)
			}
			So(len(rows1), ShouldEqual, 6)
		})

		Convey("Then final ratings come from the last season", func() {
			_, hasC := res.Final["SP1"]["C"]
			So(hasC, ShouldBeFalse)
			So(len(res.Final["SP1"]), ShouldEqual, 3)
		})

		Convey("Then the run carries a uuid", func() {
			_, err := uuid.Parse(res.RunID)
			So(err, ShouldBeNil)
		})
	})

	Convey("Given two seasons with transfer", t, func() {
		res, err := newOrchestrator(true).Run(ctx, seasons, rosterSource(seasons))
		So(err, ShouldBeNil)

		Convey("Then the promoted team inherits the relegated team's rating", func() {
			So(firstRating(res.Divisions["SP1"], "2223", "X"), ShouldAlmostEqual, continuity.Regress(f1["C"], tier1), 1e-9)
		})

		Convey("Then the relegated team inherits the promoted team's rating", func() {
			So(firstRating(res.Divisions["SP2"], "2223", "C"), ShouldAlmostEqual, continuity.Regress(f2["X"], tier2), 1e-9)
		})

		Convey("Then a club from below inherits from the club that dropped out", func() {
			So(firstRating(res.Divisions["SP2"], "2223", "N"), ShouldAlmostEqual, continuity.Regress(f2["Z"], tier2), 1e-9)
		})

		Convey("Then every transfer is logged with its mode", func() {
			So(len(res.Transfers), ShouldEqual, 3)
			modes := map[string]int{}
			for _, tr := range res.Transfers {
				So(tr.Transition, ShouldEqual, "2122_2223")
				modes[tr.Mode]++
			}
			So(modes[service.ModeMerit], ShouldEqual, 2)
			So(modes[service.ModeBlind], ShouldEqual, 1)
		})

		Convey("Then nobody is reported as unseeded", func() {
			for _, s := range res.Seasons {
				So(s.Unseeded, ShouldBeEmpty)
			}
		})
	})

	Convey("Given the same input twice", t, func() {
		a, _ := newOrchestrator(true).Run(ctx, seasons, rosterSource(seasons))
		b, _ := newOrchestrator(true).Run(ctx, seasons, rosterSource(seasons))

		Convey("Then the ratings are identical", func() {
			So(reflect.DeepEqual(a.Divisions, b.Divisions), ShouldBeTrue)
			So(reflect.DeepEqual(a.Final, b.Final), ShouldBeTrue)
			So(a.RunID, ShouldNotEqual, b.RunID)
		})
	})
}

func TestOrchestrator_Skips(t *testing.T) {
	ctx := context.Background()

	Convey("Given transfer enabled but no movement data", t, func() {
		res, err := newOrchestrator(true).Run(ctx, league(), service.TableSource{})

		Convey("Then the run completes without transfers", func() {
			So(err, ShouldBeNil)
			So(res.Transfers, ShouldBeEmpty)
			So(firstRating(res.Divisions["SP1"], "2223", "X"), ShouldEqual, 1500.0)
		})
	})

	Convey("Given a previous season missing its second tier", t, func() {
		seasons := league()
		delete(seasons[0].Matches, "SP2")
		res, err := newOrchestrator(true).Run(ctx, seasons, rosterSource(seasons))

		Convey("Then transfer is skipped and the first tier still carries over", func() {
			So(err, ShouldBeNil)
			So(res.Transfers, ShouldBeEmpty)
			So(len(res.Divisions["SP2"]), ShouldEqual, 3)
			So(firstRating(res.Divisions["SP1"], "2223", "A"), ShouldNotEqual, 1500.0)
		})
	})

	Convey("Given no seasons", t, func() {
		res, err := newOrchestrator(true).Run(ctx, nil, nil)
		So(err, ShouldBeNil)
		So(res.Divisions, ShouldBeEmpty)
	})
}

func TestOrchestrator_AbsentDivision(t *testing.T) {
	ctx := context.Background()

	Convey("Given a division missing for two consecutive seasons", t, func() {
		seasons := []service.SeasonInput{
			{Code: "2021", Matches: map[string][]model.Match{
				"SP1": {fixture(on(2020, 0), "A", "B", 2, 0)},
			}},
			{Code: "2122", Matches: map[string][]model.Match{}},
			{Code: "2223", Matches: map[string][]model.Match{}},
			{Code: "2324", Matches: map[string][]model.Match{
				"SP1": {fixture(on(2023, 0), "A", "B", 0, 0)},
			}},
		}
		o := newOrchestrator(false,
			service.WithDivisions("SP1"),
			service.WithDecay(0.5, 0.5),
		)
		res, err := o.Run(ctx, seasons, nil)

		Convey("Then its ratings decay once per season boundary", func() {
			So(err, ShouldBeNil)
			So(firstRating(res.Divisions["SP1"], "2021", "A"), ShouldEqual, 1500.0)
			// 1516 after 2021, halved toward 1500 at three boundaries.
			So(firstRating(res.Divisions["SP1"], "2324", "A"), ShouldEqual, 1502.0)
			So(firstRating(res.Divisions["SP1"], "2324", "B"), ShouldEqual, 1498.0)
		})
	})
}

func TestOrchestrator_States(t *testing.T) {
	ctx := context.Background()

	type step struct{ from, to service.State }

	Convey("Given a state hook", t, func() {
		var steps []step
		hook := service.WithStateHook(func(from, to service.State) {
			steps = append(steps, step{from, to})
		})

		Convey("When two seasons run with transfer", func() {
			_, err := newOrchestrator(true, hook).Run(ctx, league(), service.TableSource{})
			So(err, ShouldBeNil)

			Convey("Then the machine walks transfer, process, decay per season", func() {
				So(steps, ShouldResemble, []step{
					{service.StateAwaitingSeason, service.StateProcessingSeason},
					{service.StateProcessingSeason, service.StateDecaying},
					{service.StateDecaying, service.StateAwaitingSeason},
					{service.StateAwaitingSeason, service.StateTransferring},
					{service.StateTransferring, service.StateProcessingSeason},
					{service.StateProcessingSeason, service.StateDecaying},
					{service.StateDecaying, service.StateDone},
				})
			})
		})

		Convey("When a single division runs with transfer enabled", func() {
			o := service.NewOrchestrator(
				service.WithDivisions("SP1"),
				service.WithTransfer(true),
				service.WithOrchestratorLogger(logger.Nop()),
				hook,
			)
			_, err := o.Run(ctx, league(), nil)
			So(err, ShouldBeNil)

			Convey("Then the transferring state is never entered", func() {
				for _, s := range steps {
					So(s.to, ShouldNotEqual, service.StateTransferring)
				}
			})
		})
	})

	Convey("Given state names", t, func() {
		So(service.StateAwaitingSeason.String(), ShouldEqual, "awaiting-season")
		So(service.StateDone.String(), ShouldEqual, "done")
		So(service.State(42).String(), ShouldEqual, "state(42)")
	})
}

func TestMovementSources(t *testing.T) {
	ctx := context.Background()

	Convey("Given a roster source over loaded seasons", t, func() {
		src := rosterSource(league())

		Convey("When the transition is known", func() {
			table, err := src.Movements(ctx, "2122", "2223")
			So(err, ShouldBeNil)
			So(table.Teams(model.Tier2, model.Promoted), ShouldResemble, []string{"C", "N"})
		})

		Convey("When a season was not loaded", func() {
			_, err := src.Movements(ctx, "2021", "2122")
			So(errors.Is(err, movement.ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given an empty table source", t, func() {
		_, err := service.TableSource{}.Movements(ctx, "a", "b")
		So(errors.Is(err, movement.ErrUnavailable), ShouldBeTrue)
	})
}
