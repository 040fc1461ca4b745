// Package rating implements the Elo update applied to a single match.
package rating

import "math"

// Default rating configuration constants.
const (
	DefaultInitialRating = 1500.0
	DefaultKFactor       = 32.0
	// scale is the rating gap at which the stronger side is ten times as
	// likely to win.
	scale = 400.0
)

// Actual scores for the three possible results.
const (
	Win  = 1.0
	Draw = 0.5
	Loss = 0.0
)

// Update is the outcome of rating one match.
type Update struct {
	Home         float64 // post-match home rating
	Away         float64 // post-match away rating
	HomeExpected float64
	AwayExpected float64
}

// HomeChange returns the signed rating change of the home side. The away
// side always moved by the negation of this value.
func (u Update) HomeChange(before float64) float64 {
	return u.Home - before
}

// ExpectedScore is the probability-like expectation that a side rated a
// scores against a side rated b: 1 / (1 + 10^((b-a)/400)).
func ExpectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/scale))
}

// OutcomeOf maps a scoreline to the actual scores of home and away.
func OutcomeOf(homeGoals, awayGoals int) (home, away float64) {
	switch {
	case homeGoals > awayGoals:
		return Win, Loss
	case homeGoals < awayGoals:
		return Loss, Win
	default:
		return Draw, Draw
	}
}

// Apply rates one match. The home change is k*(actual-expected) and the away
// side receives exactly the opposite change, so the pair's rating total is
// preserved.
func Apply(home, away float64, homeGoals, awayGoals int, k float64) Update {
	homeExp := ExpectedScore(home, away)
	awayExp := ExpectedScore(away, home)
	homeAct, _ := OutcomeOf(homeGoals, awayGoals)

	delta := k * (homeAct - homeExp)
	return Update{
		Home:         home + delta,
		Away:         away - delta,
		HomeExpected: homeExp,
		AwayExpected: awayExp,
	}
}

// Updater applies matches with a fixed K factor.
type Updater struct {
	k float64
}

// Option applies a configuration option to the Updater.
type Option func(*Updater)

// WithKFactor sets the rating volatility. Non-positive values are ignored.
func WithKFactor(k float64) Option {
	return func(u *Updater) {
		if k > 0 {
			u.k = k
		}
	}
}

// NewUpdater creates an Updater using DefaultKFactor unless overridden.
func NewUpdater(opts ...Option) *Updater {
	u := &Updater{k: DefaultKFactor}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// K returns the configured K factor.
func (u *Updater) K() float64 { return u.k }

// Apply rates one match with the updater's K factor.
func (u *Updater) Apply(home, away float64, homeGoals, awayGoals int) Update {
	return Apply(home, away, homeGoals, awayGoals, u.k)
}
