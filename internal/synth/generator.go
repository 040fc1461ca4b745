// Package synth generates deterministic multi-season league results in the
// football-data layout, with promotion and relegation between tiers.
package synth

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/pkg/logger"
)

var towns = []string{
	"Alcora", "Benicar", "Calvera", "Durango", "Elantra", "Fuenmayor", "Garrovilla", "Huelmar",
	"Ibarrola", "Jarandilla", "Lucena", "Montalvo", "Navarrete", "Orcajo", "Pedraza", "Quintanar",
	"Riaza", "Sepulcro", "Tobarra", "Ujue", "Valdemora", "Yeste", "Zafrilla", "Almaden",
	"Borja", "Cuellar", "Daroca", "Escalona", "Frias", "Grazalema", "Hita", "Illescas",
}

// Team is a club with a hidden playing strength.
type Team struct {
	Name     string
	Strength float64
}

// Season is one generated season: results per division and the rosters
// that took part.
type Season struct {
	Code    string
	Year    int
	Matches map[string][]model.Match
	Rosters map[string][]string
}

// Generator produces seasons one after another. It is not safe for
// concurrent use.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	tiers  [][]*Team // one per division
	pool   []*Team   // clubs below the lowest modeled tier
	logger logger.Logger
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Generator. Invalid sizes are clamped: at least two teams
// per division and at most half of them swapped each season.
func New(cfg Config, opts ...Option) *Generator {
	if cfg.Teams < 2 {
		cfg.Teams = 2
	}
	if cfg.Swap < 0 {
		cfg.Swap = 0
	}
	if 2*cfg.Swap > cfg.Teams {
		cfg.Swap = cfg.Teams / 2
	}
	if len(cfg.Divisions) == 0 {
		cfg.Divisions = DefaultConfig().Divisions
	}

	g := &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logger.Get()
	}

	names := g.names(cfg.Teams*len(cfg.Divisions) + cfg.Teams)
	next := 0
	take := func(centre float64) []*Team {
		out := make([]*Team, cfg.Teams)
		for i := range out {
			out[i] = &Team{Name: names[next], Strength: centre + g.rng.NormFloat64()*strengthSpread}
			next++
		}
		return out
	}
	for i := range cfg.Divisions {
		g.tiers = append(g.tiers, take(topStrength-float64(i)*tierGap))
	}
	g.pool = take(topStrength - float64(len(cfg.Divisions))*tierGap)
	return g
}

func (g *Generator) names(n int) []string {
	out := make([]string, n)
	for i := range out {
		base := towns[i%len(towns)]
		switch round := i / len(towns); round {
		case 0:
			out[i] = base + " CF"
		default:
			out[i] = fmt.Sprintf("%s CF %d", base, round+1)
		}
	}
	return out
}

// SeasonCode converts a start year to the compact code used in file names.
func SeasonCode(year int) string {
	return fmt.Sprintf("%02d%02d", year%100, (year+1)%100)
}

// Next plays the coming season and then applies promotion and relegation
// for the one after.
func (g *Generator) Next(ctx context.Context, year int) Season {
	s := Season{
		Code:    SeasonCode(year),
		Year:    year,
		Matches: make(map[string][]model.Match, len(g.cfg.Divisions)),
		Rosters: make(map[string][]string, len(g.cfg.Divisions)),
	}
	kickoff := time.Date(year, time.August, 14, 0, 0, 0, 0, time.UTC)

	standings := make([][]*Team, len(g.tiers))
	for i, div := range g.cfg.Divisions {
		matches := g.play(g.tiers[i], kickoff)
		s.Matches[div] = matches
		s.Rosters[div] = roster(g.tiers[i])
		standings[i] = table(g.tiers[i], matches)
		g.logger.Debug(ctx, "synthetic season generated",
			logger.String("season", s.Code),
			logger.String("division", div),
			logger.Int("matches", len(matches)),
		)
	}

	g.promote(standings)
	g.drift()
	return s
}

// Generate plays every configured season.
func (g *Generator) Generate(ctx context.Context) []Season {
	out := make([]Season, 0, g.cfg.Seasons)
	for i := 0; i < g.cfg.Seasons; i++ {
		out = append(out, g.Next(ctx, g.cfg.StartYear+i))
	}
	return out
}

// play runs a double round robin. Every round is a week after the last.
func (g *Generator) play(teams []*Team, kickoff time.Time) []model.Match {
	rounds := schedule(teams)
	matches := make([]model.Match, 0, len(teams)*(len(teams)-1))
	for r, round := range rounds {
		day := kickoff.AddDate(0, 0, r*matchdayGap)
		for _, pair := range round {
			home, away := pair[0], pair[1]
			hg, ag := g.score(home, away)
			matches = append(matches, model.Match{
				Date:      day,
				RawDate:   day.Format("02/01/2006"),
				HomeTeam:  home.Name,
				AwayTeam:  away.Name,
				HomeGoals: hg,
				AwayGoals: ag,
			})
		}
	}
	return matches
}

// score draws Poisson goals with means split by relative strength.
func (g *Generator) score(home, away *Team) (int, int) {
	h := math.Pow(10, home.Strength/400) * homeAdvantage
	a := math.Pow(10, away.Strength/400)
	return g.poisson(goalsPerMatch * h / (h + a)), g.poisson(goalsPerMatch * a / (h + a))
}

func (g *Generator) poisson(lambda float64) int {
	l := math.Exp(-lambda)
	p := 1.0
	k := 0
	for p > l {
		k++
		p *= g.rng.Float64()
	}
	return k - 1
}

// promote swaps the bottom Swap clubs of every tier with the top Swap of
// the tier below; the lowest tier exchanges with its strongest pool clubs.
func (g *Generator) promote(standings [][]*Team) {
	n := g.cfg.Swap
	if n == 0 {
		return
	}
	pool := make([]*Team, len(g.pool))
	copy(pool, g.pool)
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Strength > pool[j].Strength })

	k := len(standings)
	next := make([][]*Team, k)
	for i, s := range standings {
		lo := 0
		if i > 0 {
			lo = n
		}
		t := append([]*Team{}, s[lo:len(s)-n]...)
		if i > 0 {
			above := standings[i-1]
			t = append(t, above[len(above)-n:]...)
		}
		if i+1 < k {
			t = append(t, standings[i+1][:n]...)
		} else {
			t = append(t, pool[:n]...)
		}
		sort.SliceStable(t, func(a, b int) bool { return t[a].Name < t[b].Name })
		next[i] = t
	}
	bottom := standings[k-1]
	g.pool = append(append([]*Team{}, pool[n:]...), bottom[len(bottom)-n:]...)
	g.tiers = next
}

func (g *Generator) drift() {
	for _, tier := range g.tiers {
		for _, t := range tier {
			t.Strength += g.rng.NormFloat64() * seasonDrift
		}
	}
}

// schedule returns a double round robin as rounds of (home, away) pairs
// using the circle method.
func schedule(teams []*Team) [][][2]*Team {
	ts := make([]*Team, len(teams))
	copy(ts, teams)
	if len(ts)%2 != 0 {
		ts = append(ts, nil)
	}
	n := len(ts)

	first := make([][][2]*Team, 0, n-1)
	for r := 0; r < n-1; r++ {
		round := make([][2]*Team, 0, n/2)
		for j := 0; j < n/2; j++ {
			home, away := ts[j], ts[n-1-j]
			if home == nil || away == nil {
				continue
			}
			if r%2 == 1 && j == 0 {
				home, away = away, home
			}
			round = append(round, [2]*Team{home, away})
		}
		first = append(first, round)

		last := ts[n-1]
		copy(ts[2:], ts[1:n-1])
		ts[1] = last
	}

	all := make([][][2]*Team, 0, 2*len(first))
	all = append(all, first...)
	for _, round := range first {
		swapped := make([][2]*Team, len(round))
		for i, p := range round {
			swapped[i] = [2]*Team{p[1], p[0]}
		}
		all = append(all, swapped)
	}
	return all
}

type standing struct {
	team        *Team
	points, gd  int
	goalsScored int
}

// table orders teams by points, goal difference, goals scored, then name.
func table(teams []*Team, matches []model.Match) []*Team {
	rows := make(map[string]*standing, len(teams))
	for _, t := range teams {
		rows[t.Name] = &standing{team: t}
	}
	for _, m := range matches {
		h, a := rows[m.HomeTeam], rows[m.AwayTeam]
		h.gd += m.HomeGoals - m.AwayGoals
		a.gd += m.AwayGoals - m.HomeGoals
		h.goalsScored += m.HomeGoals
		a.goalsScored += m.AwayGoals
		switch {
		case m.HomeGoals > m.AwayGoals:
			h.points += 3
		case m.HomeGoals < m.AwayGoals:
			a.points += 3
		default:
			h.points++
			a.points++
		}
	}

	list := make([]*standing, 0, len(rows))
	for _, t := range teams {
		list = append(list, rows[t.Name])
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.points != b.points {
			return a.points > b.points
		}
		if a.gd != b.gd {
			return a.gd > b.gd
		}
		if a.goalsScored != b.goalsScored {
			return a.goalsScored > b.goalsScored
		}
		return a.team.Name < b.team.Name
	})
	out := make([]*Team, len(list))
	for i, s := range list {
		out[i] = s.team
	}
	return out
}

func roster(teams []*Team) []string {
	out := make([]string, len(teams))
	for i, t := range teams {
		out[i] = t.Name
	}
	sort.Strings(out)
	return out
}
