package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/okian/footelo/internal/domain/continuity"
	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/movement"
	"github.com/okian/footelo/internal/domain/rating"
	"github.com/okian/footelo/internal/domain/season"
	"github.com/okian/footelo/pkg/logger"
	"github.com/okian/footelo/pkg/metrics"
)

// Transfer modes.
const (
	ModeMerit = "merit"
	ModeBlind = "blind"
)

// Reasons a boundary transfer is skipped.
const (
	skipMovementUnavailable = "movement_unavailable"
	skipMissingFinals       = "missing_finals"
	skipNoSource            = "no_movement_source"
)

// SeasonInput is one season's matches keyed by division code. A division
// without an entry had no results file.
type SeasonInput struct {
	Code    string
	Matches map[string][]model.Match
}

// SeasonSummary describes one processed season/division.
type SeasonSummary struct {
	Season   string   `json:"season"`
	Division string   `json:"division"`
	Matches  int      `json:"matches"`
	Dropped  int      `json:"dropped"`
	Teams    int      `json:"teams"`
	Unseeded []string `json:"unseeded,omitempty"`
}

// TransferRecord is one rating handed across a season boundary.
type TransferRecord struct {
	continuity.Assignment
	Transition string
	Tier       model.Tier // tier whose seed received the rating
	Mode       string
}

// Result is the output of a multi-season run.
type Result struct {
	RunID string
	// Divisions holds every enriched match of a division across all
	// seasons, stably sorted by date.
	Divisions map[string][]model.EnrichedMatch
	// Final holds each division's ratings after the last season it played.
	Final     map[string]model.Snapshot
	Seasons   []SeasonSummary
	Transfers []TransferRecord
}

// MovementSource supplies the promotion/relegation table of a transition.
// Implementations return an error wrapping movement.ErrUnavailable when
// the table cannot be produced.
type MovementSource interface {
	Movements(ctx context.Context, prev, curr string) (movement.Table, error)
}

// Orchestrator chains seasons of one or two divisions, carrying ratings
// over season boundaries.
type Orchestrator struct {
	divisions       []string
	initial         float64
	k               float64
	decayTier1      float64
	decayTier2      float64
	regressionPoint float64
	transfer        bool
	onState         func(from, to State)
	logger          logger.Logger
}

// OrchestratorOption applies a configuration option to the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithDivisions sets the division codes, top tier first.
func WithDivisions(divisions ...string) OrchestratorOption {
	return func(o *Orchestrator) {
		if len(divisions) > 0 {
			o.divisions = append([]string(nil), divisions...)
		}
	}
}

// WithInitialRating sets the rating of teams without history.
func WithInitialRating(r float64) OrchestratorOption {
	return func(o *Orchestrator) {
		o.initial = r
	}
}

// WithKFactor sets the Elo K factor.
func WithKFactor(k float64) OrchestratorOption {
	return func(o *Orchestrator) {
		if k > 0 {
			o.k = k
		}
	}
}

// WithDecay sets the off-season decay factor of each tier.
func WithDecay(tier1, tier2 float64) OrchestratorOption {
	return func(o *Orchestrator) {
		o.decayTier1 = tier1
		o.decayTier2 = tier2
	}
}

// WithRegressionPoint sets the rating decay pulls toward.
func WithRegressionPoint(rp float64) OrchestratorOption {
	return func(o *Orchestrator) {
		o.regressionPoint = rp
	}
}

// WithTransfer enables cross-tier rating transfer.
func WithTransfer(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.transfer = enabled
	}
}

// WithStateHook registers a callback invoked on every state change.
func WithStateHook(fn func(from, to State)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.onState = fn
	}
}

// WithOrchestratorLogger sets a custom logger.
func WithOrchestratorLogger(l logger.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		initial:         rating.DefaultInitialRating,
		k:               rating.DefaultKFactor,
		decayTier1:      0.95,
		decayTier2:      0.95,
		regressionPoint: rating.DefaultInitialRating,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}

func (o *Orchestrator) decayFor(idx int) model.DecayConfig {
	f := o.decayTier2
	if idx == 0 {
		f = o.decayTier1
	}
	return model.DecayConfig{Factor: f, RegressionPoint: o.regressionPoint}
}

// Run processes seasons in the given order. Season 0 is unseeded; every
// later season is seeded by the decayed finals of the one before, after an
// optional transfer between tiers. src may be nil when transfer is off.
func (o *Orchestrator) Run(ctx context.Context, seasons []SeasonInput, src MovementSource) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Divisions: make(map[string][]model.EnrichedMatch, len(o.divisions)),
		Final:     make(map[string]model.Snapshot, len(o.divisions)),
	}
	log := o.logger.Named("orchestrator")
	m := &machine{state: StateAwaitingSeason, hook: o.onState}

	log.Info(ctx, "multi-season run started",
		logger.String("run_id", res.RunID),
		logger.Strings("divisions", o.divisions),
		logger.Int("seasons", len(seasons)),
		logger.Bool("transfer", o.transfer),
	)

	// last holds each division's most recent finals; seeds the decayed
	// versions for the coming season.
	last := make(map[string]model.Snapshot, len(o.divisions))
	seeds := make(map[string]model.Snapshot, len(o.divisions))
	var prevTiers [2]model.Snapshot

	for i, s := range seasons {
		if i > 0 && o.transfer && len(o.divisions) == 2 {
			if err := m.to(StateTransferring); err != nil {
				return nil, err
			}
			recs := o.transferAt(ctx, seasons[i-1].Code, s.Code, prevTiers, seeds, src)
			res.Transfers = append(res.Transfers, recs...)
		}

		if err := m.to(StateProcessingSeason); err != nil {
			return nil, err
		}
		var tiers [2]model.Snapshot
		for idx, div := range o.divisions {
			matches, ok := s.Matches[div]
			if !ok {
				log.Warn(ctx, "no results for division; carrying previous ratings",
					logger.String("season", s.Code),
					logger.String("division", div),
				)
				continue
			}
			p := season.NewProcessor(
				season.WithInitialRating(o.initial),
				season.WithKFactor(o.k),
				season.WithSeason(s.Code),
				season.WithDivision(div),
				season.WithLogger(o.logger),
			)
			r := p.Run(ctx, matches, seeds[div])

			res.Divisions[div] = append(res.Divisions[div], r.Matches...)
			res.Final[div] = r.Final
			res.Seasons = append(res.Seasons, SeasonSummary{
				Season:   s.Code,
				Division: div,
				Matches:  len(r.Matches),
				Dropped:  r.Dropped,
				Teams:    len(r.Final),
				Unseeded: r.Unseeded,
			})
			last[div] = r.Final
			if idx < len(tiers) {
				tiers[idx] = r.Final
			}
		}
		metrics.RecordSeasonProcessed()

		if err := m.to(StateDecaying); err != nil {
			return nil, err
		}
		// An absent division keeps decaying its carried seed, including any
		// transfer written into it.
		for idx, div := range o.divisions {
			cfg := o.decayFor(idx)
			if _, played := s.Matches[div]; played {
				seeds[div] = continuity.Decay(last[div], cfg)
			} else if seed, ok := seeds[div]; ok {
				seeds[div] = continuity.Decay(seed, cfg)
			}
		}
		prevTiers = tiers

		if i < len(seasons)-1 {
			if err := m.to(StateAwaitingSeason); err != nil {
				return nil, err
			}
		}
	}
	if err := m.to(StateDone); err != nil {
		return nil, err
	}

	for div, rows := range res.Divisions {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Date.Before(rows[j].Date)
		})
		res.Divisions[div] = rows
	}

	log.Info(ctx, "multi-season run finished",
		logger.String("run_id", res.RunID),
		logger.Int("transfers", len(res.Transfers)),
	)
	return res, nil
}

// transferAt hands ratings across tiers at the boundary prev -> curr and
// writes them into seeds. finals are the previous season's tier finals.
func (o *Orchestrator) transferAt(
	ctx context.Context,
	prev, curr string,
	finals [2]model.Snapshot,
	seeds map[string]model.Snapshot,
	src MovementSource,
) []TransferRecord {
	transition := movement.TransitionID(prev, curr)
	skip := func(reason string, fields ...logger.Field) []TransferRecord {
		metrics.RecordTransferSkipped(reason)
		fields = append([]logger.Field{
			logger.String("transition", transition),
			logger.String("reason", reason),
		}, fields...)
		o.logger.Warn(ctx, "skipping rating transfer", fields...)
		return nil
	}

	if finals[0] == nil || finals[1] == nil {
		return skip(skipMissingFinals)
	}
	if src == nil {
		return skip(skipNoSource)
	}
	table, err := src.Movements(ctx, prev, curr)
	if err != nil {
		return skip(skipMovementUnavailable, logger.Error(err))
	}
	table = table.Clean()

	t1Relegated := table.Teams(model.Tier1, model.Relegated)
	t1Promoted := table.Teams(model.Tier1, model.Promoted)
	t2Relegated := table.Teams(model.Tier2, model.Relegated)
	t2Promoted := table.Teams(model.Tier2, model.Promoted)

	top, second := o.divisions[0], o.divisions[1]
	var missing []string
	rate := func(teams []string, from model.Snapshot) []continuity.Candidate {
		cs, miss := continuity.CandidatesFrom(teams, from, o.initial)
		missing = append(missing, miss...)
		return cs
	}

	var out []TransferRecord
	apply := func(tier model.Tier, targets, sources []continuity.Candidate, cfg model.DecayConfig, seed model.Snapshot) {
		mode := ModeMerit
		for _, t := range targets {
			if !t.Rated {
				mode = ModeBlind
				break
			}
		}
		as := continuity.Transfer(targets, sources, cfg, seed)
		metrics.RecordTransfers(string(tier), mode, len(as))
		for _, a := range as {
			o.logger.Info(ctx, "rating transferred",
				logger.String("transition", transition),
				logger.String("tier", string(tier)),
				logger.String("mode", mode),
				logger.String("team", a.Target),
				logger.String("from", a.Source),
				logger.Float64("source_rating", a.SourceRating),
				logger.Float64("rating", a.Rating),
			)
			out = append(out, TransferRecord{Assignment: a, Transition: transition, Tier: tier, Mode: mode})
		}
	}

	// Teams arriving in the top tier inherit from the teams that left it.
	apply(model.Tier1,
		rate(t1Promoted, finals[1]),
		rate(t1Relegated, finals[0]),
		o.decayFor(0), seeds[top])

	// Teams dropping into the second tier inherit from the teams that left it upward.
	apply(model.Tier2,
		rate(t1Relegated, finals[0]),
		rate(t1Promoted, finals[1]),
		o.decayFor(1), seeds[second])

	// Teams arriving from below the modeled tiers have no rating of their
	// own and inherit, in name order, from the teams that dropped out.
	apply(model.Tier2,
		continuity.Names(without(t2Promoted, t1Relegated)),
		rate(without(t2Relegated, t1Promoted), finals[1]),
		o.decayFor(1), seeds[second])

	if len(missing) > 0 {
		o.logger.Warn(ctx, "transfer candidates without a final rating used the initial rating",
			logger.String("transition", transition),
			logger.Strings("teams", missing),
		)
	}
	return out
}

// without returns teams not present in drop, keeping order.
func without(teams, drop []string) []string {
	skip := make(map[string]struct{}, len(drop))
	for _, t := range drop {
		skip[t] = struct{}{}
	}
	out := make([]string, 0, len(teams))
	for _, t := range teams {
		if _, ok := skip[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
