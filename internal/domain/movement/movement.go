// Package movement derives promotions and relegations from roster changes
// between two consecutive seasons.
package movement

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/pkg/logger"
	"github.com/okian/footelo/pkg/metrics"
)

// Roster is the set of teams that took part in a division's season.
type Roster map[string]struct{}

// NewRoster builds a roster from team names, ignoring empty names.
func NewRoster(teams ...string) Roster {
	r := make(Roster, len(teams))
	for _, t := range teams {
		if t != "" {
			r[t] = struct{}{}
		}
	}
	return r
}

// RosterOf collects every home and away team appearing in matches.
func RosterOf(matches []model.Match) Roster {
	r := make(Roster)
	for _, m := range matches {
		if m.HomeTeam != "" {
			r[m.HomeTeam] = struct{}{}
		}
		if m.AwayTeam != "" {
			r[m.AwayTeam] = struct{}{}
		}
	}
	return r
}

// Has reports whether team is on the roster.
func (r Roster) Has(team string) bool {
	_, ok := r[team]
	return ok
}

// minus returns the sorted names in r that are not in o.
func (r Roster) minus(o Roster) []string {
	out := make([]string, 0)
	for t := range r {
		if !o.Has(t) {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Diff compares one tier's rosters across two seasons. Both results are
// sorted by name.
func Diff(prev, curr Roster) (relegated, promoted []string) {
	return prev.minus(curr), curr.minus(prev)
}

// Rosters holds both tiers' rosters for the seasons either side of a
// transition. A nil roster means the season's file could not be loaded.
type Rosters struct {
	PrevTier1, PrevTier2 Roster
	CurrTier1, CurrTier2 Roster
}

// TransitionID names the boundary between two season codes, e.g. "2223_2324".
func TransitionID(prev, curr string) string {
	return fmt.Sprintf("%s_%s", prev, curr)
}

// Identifier turns roster pairs into movement tables.
type Identifier struct {
	logger logger.Logger
}

// Option applies a configuration option to the Identifier.
type Option func(*Identifier)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(i *Identifier) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewIdentifier creates an Identifier.
func NewIdentifier(opts ...Option) *Identifier {
	i := &Identifier{}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = logger.Get()
	}
	return i
}

// Identify diffs both tiers for the transition. It returns ErrUnavailable
// when any of the four rosters is missing. Count mismatches between
// promoted and relegated teams are logged, not rejected.
func (i *Identifier) Identify(ctx context.Context, transition string, r Rosters) (Table, error) {
	if r.PrevTier1 == nil || r.PrevTier2 == nil || r.CurrTier1 == nil || r.CurrTier2 == nil {
		i.logger.Warn(ctx, "previous or current roster missing; skipping promotion/relegation",
			logger.String("transition", transition),
		)
		return nil, fmt.Errorf("identify %s: %w", transition, ErrUnavailable)
	}

	var table Table
	tiers := []struct {
		tier       model.Tier
		prev, curr Roster
	}{
		{model.Tier1, r.PrevTier1, r.CurrTier1},
		{model.Tier2, r.PrevTier2, r.CurrTier2},
	}
	for _, t := range tiers {
		relegated, promoted := Diff(t.prev, t.curr)
		if len(relegated) != len(promoted) {
			metrics.RecordMovementMismatch(string(t.tier))
			i.logger.Warn(ctx, "promoted and relegated counts differ",
				logger.String("transition", transition),
				logger.String("tier", string(t.tier)),
				logger.Int("relegated", len(relegated)),
				logger.Int("promoted", len(promoted)),
			)
		}
		for _, team := range relegated {
			table = append(table, model.Movement{Transition: transition, Tier: t.tier, Team: team, Status: model.Relegated})
		}
		for _, team := range promoted {
			table = append(table, model.Movement{Transition: transition, Tier: t.tier, Team: team, Status: model.Promoted})
		}
		i.logger.Debug(ctx, "roster diff",
			logger.String("transition", transition),
			logger.String("tier", string(t.tier)),
			logger.Strings("relegated", relegated),
			logger.Strings("promoted", promoted),
		)
	}
	return table, nil
}
