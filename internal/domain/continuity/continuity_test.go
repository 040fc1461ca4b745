package continuity_test

import (
	"testing"

	"github.com/okian/footelo/internal/domain/continuity"
	"github.com/okian/footelo/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func cfg(factor float64) model.DecayConfig {
	return model.DecayConfig{Factor: factor, RegressionPoint: 1500}
}

func TestDecay(t *testing.T) {
	Convey("Given end-of-season ratings", t, func() {
		final := model.Snapshot{"A": 1650, "B": 1380, "C": 1500}

		Convey("When the factor is 1.0", func() {
			next := continuity.Decay(final, cfg(1.0))

			Convey("Then ratings carry over unchanged", func() {
				So(next, ShouldResemble, final)
			})
		})

		Convey("When the factor is 0.0", func() {
			next := continuity.Decay(final, cfg(0.0))

			Convey("Then every team resets to the regression point", func() {
				for _, r := range next {
					So(r, ShouldEqual, 1500.0)
				}
			})
		})

		Convey("When the factor is 0.95", func() {
			next := continuity.Decay(final, cfg(0.95))

			Convey("Then ratings shrink toward 1500", func() {
				So(next["A"], ShouldAlmostEqual, 1642.5, 1e-9)
				So(next["B"], ShouldAlmostEqual, 1386.0, 1e-9)
				So(next["C"], ShouldEqual, 1500.0)
			})

			Convey("Then the input is left alone", func() {
				So(final["A"], ShouldEqual, 1650.0)
			})
		})
	})
}

func TestTransfer(t *testing.T) {
	Convey("Given a single source rated 1650 and decay 0.95", t, func() {
		seed := model.Snapshot{}
		out := continuity.Transfer(
			continuity.Names([]string{"Up"}),
			[]continuity.Candidate{{Team: "Down", Rating: 1650, Rated: true}},
			cfg(0.95), seed)

		Convey("Then the target inherits 1642.5", func() {
			So(seed["Up"], ShouldAlmostEqual, 1642.5, 1e-9)
			So(out, ShouldHaveLength, 1)
			So(out[0].Source, ShouldEqual, "Down")
			So(out[0].SourceRating, ShouldEqual, 1650.0)
		})
	})

	Convey("Given rated targets and sources of equal length", t, func() {
		seed := model.Snapshot{"Stay": 1510}
		targets := []continuity.Candidate{
			{Team: "WeakUp", Rating: 1520, Rated: true},
			{Team: "StrongUp", Rating: 1610, Rated: true},
			{Team: "MidUp", Rating: 1580, Rated: true},
		}
		sources := []continuity.Candidate{
			{Team: "MidDown", Rating: 1450, Rated: true},
			{Team: "WorstDown", Rating: 1400, Rated: true},
			{Team: "BestDown", Rating: 1470, Rated: true},
		}
		out := continuity.Transfer(targets, sources, cfg(1.0), seed)

		Convey("Then pairing follows merit on both sides", func() {
			So(seed["StrongUp"], ShouldEqual, 1470.0)
			So(seed["MidUp"], ShouldEqual, 1450.0)
			So(seed["WeakUp"], ShouldEqual, 1400.0)
			So(out[0].Target, ShouldEqual, "StrongUp")
			So(out[0].Source, ShouldEqual, "BestDown")
		})

		Convey("Then teams outside the transfer keep their seed", func() {
			So(seed["Stay"], ShouldEqual, 1510.0)
			So(len(seed), ShouldEqual, 4)
		})

		Convey("Then the caller's slices keep their order", func() {
			So(targets[0].Team, ShouldEqual, "WeakUp")
			So(sources[0].Team, ShouldEqual, "MidDown")
		})
	})

	Convey("Given unrated targets", t, func() {
		seed := model.Snapshot{}
		targets := continuity.Names([]string{"Zeta", "Alpha"})
		sources := []continuity.Candidate{
			{Team: "S1", Rating: 1480, Rated: true},
			{Team: "S2", Rating: 1530, Rated: true},
		}
		continuity.Transfer(targets, sources, cfg(1.0), seed)

		Convey("Then targets are served in the given order", func() {
			So(seed["Zeta"], ShouldEqual, 1530.0)
			So(seed["Alpha"], ShouldEqual, 1480.0)
		})
	})

	Convey("Given more sources than targets", t, func() {
		seed := model.Snapshot{}
		out := continuity.Transfer(
			[]continuity.Candidate{{Team: "T", Rating: 1500, Rated: true}},
			[]continuity.Candidate{
				{Team: "S1", Rating: 1400, Rated: true},
				{Team: "S2", Rating: 1600, Rated: true},
			},
			cfg(1.0), seed)

		Convey("Then only the best source is used", func() {
			So(out, ShouldHaveLength, 1)
			So(seed["T"], ShouldEqual, 1600.0)
			So(len(seed), ShouldEqual, 1)
		})
	})

	Convey("Given more targets than sources", t, func() {
		seed := model.Snapshot{"T2": 1490}
		out := continuity.Transfer(
			[]continuity.Candidate{
				{Team: "T1", Rating: 1550, Rated: true},
				{Team: "T2", Rating: 1450, Rated: true},
			},
			[]continuity.Candidate{{Team: "S", Rating: 1620, Rated: true}},
			cfg(1.0), seed)

		Convey("Then the excess target keeps its prior rating", func() {
			So(out, ShouldHaveLength, 1)
			So(seed["T1"], ShouldEqual, 1620.0)
			So(seed["T2"], ShouldEqual, 1490.0)
		})
	})

	Convey("Given an empty side", t, func() {
		seed := model.Snapshot{"A": 1500}
		So(continuity.Transfer(nil, []continuity.Candidate{{Team: "S", Rating: 1600, Rated: true}}, cfg(1), seed), ShouldBeEmpty)
		So(continuity.Transfer(continuity.Names([]string{"A"}), nil, cfg(1), seed), ShouldBeEmpty)
		So(seed, ShouldResemble, model.Snapshot{"A": 1500})
	})
}

func TestCandidatesFrom(t *testing.T) {
	Convey("Given ratings that miss one team", t, func() {
		cs, missing := continuity.CandidatesFrom([]string{"A", "B"}, model.Snapshot{"A": 1600}, 1500)

		Convey("Then the missing team defaults and is reported", func() {
			So(cs[0], ShouldResemble, continuity.Candidate{Team: "A", Rating: 1600, Rated: true})
			So(cs[1], ShouldResemble, continuity.Candidate{Team: "B", Rating: 1500, Rated: true})
			So(missing, ShouldResemble, []string{"B"})
		})
	})
}
