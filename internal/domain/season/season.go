// Package season rates one division's season of matches in date order.
package season

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/rating"
	"github.com/okian/footelo/pkg/logger"
	"github.com/okian/footelo/pkg/metrics"
)

// Drop reasons reported in logs and metrics.
const (
	reasonMissingDate = "missing_date"
	reasonMissingTeam = "missing_team"
)

// Result is the output of one season run.
type Result struct {
	// Matches holds one entry per rated match, in processing order.
	Matches []model.EnrichedMatch
	// Final holds the rating of every team that played, after its last match.
	// Seeded teams that never appeared are not carried.
	Final model.Snapshot
	// Dropped counts rows excluded because of a missing date or team.
	Dropped int
	// Unseeded lists teams that had no rating in a non-empty seed.
	Unseeded []string
}

// Processor rates matches of a single season.
type Processor struct {
	initial  float64
	updater  *rating.Updater
	season   string
	division string
	logger   logger.Logger
}

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithInitialRating sets the rating of a team seen for the first time.
func WithInitialRating(r float64) Option {
	return func(p *Processor) {
		p.initial = r
	}
}

// WithKFactor sets the Elo K factor. Non-positive values are ignored.
func WithKFactor(k float64) Option {
	return func(p *Processor) {
		p.updater = rating.NewUpdater(rating.WithKFactor(k))
	}
}

// WithSeason labels enriched matches with a season code.
func WithSeason(code string) Option {
	return func(p *Processor) {
		p.season = code
	}
}

// WithDivision labels enriched matches with a division code.
func WithDivision(code string) Option {
	return func(p *Processor) {
		p.division = code
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessor creates a Processor with defaults of 1500 and k=32.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		initial: rating.DefaultInitialRating,
		updater: rating.NewUpdater(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get()
	}
	return p
}

// Run rates matches in canonical date order starting from seed. The seed is
// not modified. Rows without a date or a team name are dropped with a
// warning rather than processed out of order.
func (p *Processor) Run(ctx context.Context, matches []model.Match, seed model.Snapshot) Result {
	start := time.Now()
	ordered, dropped := p.prepare(ctx, matches)

	ratings := seed.Clone()
	seeded := len(seed) > 0
	played := make(model.Snapshot)
	unseeded := map[string]struct{}{}

	// lookup is the only place a default rating is handed out.
	lookup := func(team string) float64 {
		r, ok := ratings.Get(team, p.initial)
		if !ok && seeded {
			unseeded[team] = struct{}{}
		}
		return r
	}

	out := make([]model.EnrichedMatch, 0, len(ordered))
	for _, m := range ordered {
		home := lookup(m.HomeTeam)
		away := lookup(m.AwayTeam)
		u := p.updater.Apply(home, away, m.HomeGoals, m.AwayGoals)

		ratings[m.HomeTeam] = u.Home
		ratings[m.AwayTeam] = u.Away
		played[m.HomeTeam] = u.Home
		played[m.AwayTeam] = u.Away

		out = append(out, model.EnrichedMatch{
			Match:        m,
			Season:       p.season,
			Division:     p.division,
			HomeRating:   home,
			AwayRating:   away,
			HomeExpected: u.HomeExpected,
			AwayExpected: u.AwayExpected,
		})
		metrics.RecordMatchProcessed(p.division, u.HomeChange(home))
	}

	res := Result{Matches: out, Final: played, Dropped: dropped}
	if len(unseeded) > 0 {
		res.Unseeded = make([]string, 0, len(unseeded))
		for team := range unseeded {
			res.Unseeded = append(res.Unseeded, team)
		}
		sort.Strings(res.Unseeded)
		p.logger.Warn(ctx, "teams without a carried rating start at the initial rating",
			logger.String("season", p.season),
			logger.String("division", p.division),
			logger.Strings("teams", res.Unseeded),
			logger.Float64("initial_rating", p.initial),
		)
		metrics.RecordUnseededTeams(p.division, len(res.Unseeded))
	}

	metrics.UpdateTeamsRated(p.division, len(played))
	metrics.RecordSeasonLatency(p.division, float64(time.Since(start).Microseconds())/1000)
	p.logger.Debug(ctx, "season rated",
		logger.String("season", p.season),
		logger.String("division", p.division),
		logger.Int("matches", len(out)),
		logger.Int("dropped", dropped),
		logger.Int("teams", len(played)),
	)
	return res
}

// prepare filters malformed rows and returns a canonically ordered copy.
func (p *Processor) prepare(ctx context.Context, matches []model.Match) ([]model.Match, int) {
	ordered := make([]model.Match, 0, len(matches))
	dropped := 0
	for i, m := range matches {
		reason := ""
		switch {
		case strings.TrimSpace(m.HomeTeam) == "" || strings.TrimSpace(m.AwayTeam) == "":
			reason = reasonMissingTeam
		case m.Date.IsZero():
			reason = reasonMissingDate
		}
		if reason != "" {
			dropped++
			metrics.RecordMatchDropped(p.division, reason)
			p.logger.Warn(ctx, "dropping match row",
				logger.String("season", p.season),
				logger.String("division", p.division),
				logger.String("reason", reason),
				logger.Int("row", i),
				logger.String("date", m.RawDate),
				logger.String("home", m.HomeTeam),
				logger.String("away", m.AwayTeam),
			)
			continue
		}
		ordered = append(ordered, m)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Before(ordered[j])
	})
	return ordered, dropped
}
