package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/footelo/internal/adapters/dataset"
	"github.com/okian/footelo/internal/adapters/mq/queue"
	"github.com/okian/footelo/internal/adapters/mq/worker"
	"github.com/okian/footelo/internal/config"
	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/movement"
	"github.com/okian/footelo/internal/domain/season"
	"github.com/okian/footelo/pkg/logger"
	"github.com/okian/footelo/pkg/metrics"
)

// Sink receives the outputs of a pipeline run, e.g. a database.
type Sink interface {
	SaveEnriched(ctx context.Context, runID string, rows []model.EnrichedMatch) error
	SaveRatings(ctx context.Context, runID, division string, ratings model.Snapshot) error
	SaveMovements(ctx context.Context, runID string, table movement.Table) error
}

// Report summarises one pipeline run.
type Report struct {
	RunID       string
	MultiSeason bool
	Transfer    bool
	Seasons     []string
	Divisions   []string
	Files       []string
	Final       map[string]model.Snapshot
	Movements   movement.Table
	Summaries   []SeasonSummary
	Transfers   []TransferRecord
	Started     time.Time
	Finished    time.Time
}

// Pipeline loads results files, rates them and writes the enriched outputs.
type Pipeline struct {
	cfg        *config.Config
	store      *dataset.Store
	sink       Sink
	identifier *movement.Identifier
	logger     logger.Logger
}

// PipelineOption applies a configuration option to the Pipeline.
type PipelineOption func(*Pipeline)

// WithSink sets an optional sink written after the files.
func WithSink(s Sink) PipelineOption {
	return func(p *Pipeline) {
		p.sink = s
	}
}

// WithPipelineLogger sets a custom logger.
func WithPipelineLogger(l logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a Pipeline for cfg reading and writing through store.
func NewPipeline(cfg *config.Config, store *dataset.Store, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{cfg: cfg, store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get()
	}
	p.identifier = movement.NewIdentifier(movement.WithLogger(p.logger))
	return p
}

// Run executes one full pass.
func (p *Pipeline) Run(ctx context.Context) (rep *Report, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordPipelineRun(outcome)
	}()

	codes, err := p.cfg.SeasonCodes()
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, ErrNoSeasons
	}
	divs := p.cfg.DivisionList()

	rep = &Report{
		MultiSeason: p.cfg.MultiSeason,
		Transfer:    p.cfg.EloTransfer,
		Seasons:     codes,
		Divisions:   divs,
		Final:       make(map[string]model.Snapshot, len(divs)),
		Started:     time.Now(),
	}

	seasons, err := p.load(ctx, codes, divs)
	if err != nil {
		return nil, err
	}

	tables, err := p.identify(ctx, seasons, divs, rep)
	if err != nil {
		return nil, err
	}

	var rows []model.EnrichedMatch
	if p.cfg.MultiSeason {
		rows, err = p.runMulti(ctx, seasons, tables, rep)
	} else {
		rows, err = p.runSingle(ctx, seasons, rep)
	}
	if err != nil {
		return nil, err
	}

	if p.sink != nil {
		if err := p.flush(ctx, rep, rows); err != nil {
			return nil, err
		}
	}

	rep.Finished = time.Now()
	p.logger.Info(ctx, "pipeline finished",
		logger.String("run_id", rep.RunID),
		logger.Bool("multi_season", rep.MultiSeason),
		logger.Int("files", len(rep.Files)),
		logger.Int("matches", len(rows)),
		logger.Any("duration", rep.Finished.Sub(rep.Started)),
	)
	return rep, nil
}

// load reads every season/division file. Missing files leave the division
// out of that season.
func (p *Pipeline) load(ctx context.Context, codes, divs []string) ([]SeasonInput, error) {
	seasons := make([]SeasonInput, 0, len(codes))
	for _, code := range codes {
		in := SeasonInput{Code: code, Matches: make(map[string][]model.Match, len(divs))}
		for _, div := range divs {
			matches, err := p.store.LoadSeason(ctx, code, div)
			if errors.Is(err, dataset.ErrNotFound) {
				p.logger.Warn(ctx, "results file missing",
					logger.String("season", code),
					logger.String("division", div),
					logger.String("path", p.store.RawPath(code, div)),
				)
				continue
			}
			if err != nil {
				return nil, err
			}
			in.Matches[div] = matches
		}
		seasons = append(seasons, in)
	}
	return seasons, nil
}

// identify diffs rosters of every consecutive season pair and persists the
// tables. When rosters are unavailable a previously saved table is reused.
func (p *Pipeline) identify(ctx context.Context, seasons []SeasonInput, divs []string, rep *Report) (TableSource, error) {
	tables := TableSource{}
	if len(divs) != 2 {
		return tables, nil
	}
	src := NewRosterSource(p.identifier, divs, seasons)
	for i := 1; i < len(seasons); i++ {
		prev, curr := seasons[i-1].Code, seasons[i].Code
		id := movement.TransitionID(prev, curr)

		table, err := src.Movements(ctx, prev, curr)
		if err == nil {
			if err := p.store.SaveMovements(ctx, curr, table); err != nil {
				return nil, err
			}
			rep.Files = append(rep.Files, p.store.MovementsPath(curr))
		} else {
			saved, loadErr := p.store.LoadMovements(ctx, curr)
			if loadErr != nil {
				p.logger.Warn(ctx, "promotion/relegation unavailable",
					logger.String("transition", id),
					logger.Error(err),
				)
				continue
			}
			table = saved.ForTransition(id)
			p.logger.Info(ctx, "using saved promotion/relegation table",
				logger.String("transition", id),
				logger.Int("rows", len(table)),
			)
		}
		tables[id] = table
		rep.Movements = append(rep.Movements, table...)
	}
	return tables, nil
}

func (p *Pipeline) runMulti(ctx context.Context, seasons []SeasonInput, src MovementSource, rep *Report) ([]model.EnrichedMatch, error) {
	divs := rep.Divisions
	orch := NewOrchestrator(
		WithDivisions(divs...),
		WithInitialRating(p.cfg.InitialRating),
		WithKFactor(p.cfg.KFactor),
		WithDecay(p.cfg.DecayTier1, p.cfg.DecayTier2),
		WithRegressionPoint(p.cfg.RegressionPoint),
		WithTransfer(p.cfg.EloTransfer),
		WithOrchestratorLogger(p.logger),
	)
	res, err := orch.Run(ctx, seasons, src)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: %w", err)
	}
	rep.RunID = res.RunID
	rep.Final = res.Final
	rep.Summaries = res.Seasons
	rep.Transfers = res.Transfers

	first, last := seasons[0].Code, seasons[len(seasons)-1].Code
	var all []model.EnrichedMatch
	for _, div := range divs {
		rows := res.Divisions[div]
		if len(rows) == 0 {
			continue
		}
		path := p.store.CombinedPath(div, first, last, p.cfg.EloTransfer)
		if err := p.store.SaveEnriched(ctx, path, rows); err != nil {
			return nil, err
		}
		rep.Files = append(rep.Files, path)
		all = append(all, rows...)
	}
	return all, nil
}

type singleResult struct {
	path    string
	result  season.Result
	summary SeasonSummary
}

// runSingle rates every season/division independently from the initial
// rating. Files are rated in parallel on a worker pool; outputs keep
// season/division order.
func (p *Pipeline) runSingle(ctx context.Context, seasons []SeasonInput, rep *Report) ([]model.EnrichedMatch, error) {
	rep.RunID = uuid.NewString()

	var results []*singleResult
	var jobs []worker.Job
	for _, s := range seasons {
		for _, div := range rep.Divisions {
			matches, ok := s.Matches[div]
			if !ok {
				continue
			}
			out := &singleResult{}
			results = append(results, out)
			code, div := s.Code, div
			jobs = append(jobs, worker.Job{
				Name: code + "/" + div,
				Run: func(ctx context.Context) error {
					return p.rateSingle(ctx, code, div, matches, out)
				},
			})
		}
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	q := queue.NewInMemoryQueue[worker.Job](queue.WithCapacity(len(jobs)))
	pool := worker.NewPool(min(p.cfg.Workers, len(jobs)), q, worker.WithPoolLogger(p.logger))
	pool.Start(ctx)
	for _, job := range jobs {
		if !q.Enqueue(ctx, job) {
			_ = pool.Shutdown(ctx)
			return nil, fmt.Errorf("enqueue %s: %w", job.Name, queue.ErrFull)
		}
	}
	if err := pool.Drain(ctx); err != nil {
		return nil, err
	}

	var all []model.EnrichedMatch
	for _, r := range results {
		rep.Files = append(rep.Files, r.path)
		rep.Final[r.summary.Division] = r.result.Final
		rep.Summaries = append(rep.Summaries, r.summary)
		all = append(all, r.result.Matches...)
	}
	return all, nil
}

func (p *Pipeline) rateSingle(ctx context.Context, code, div string, matches []model.Match, out *singleResult) error {
	proc := season.NewProcessor(
		season.WithInitialRating(p.cfg.InitialRating),
		season.WithKFactor(p.cfg.KFactor),
		season.WithSeason(code),
		season.WithDivision(div),
		season.WithLogger(p.logger),
	)
	r := proc.Run(ctx, matches, nil)
	metrics.RecordSeasonProcessed()

	path := p.store.EnrichedPath(code, div, "")
	if err := p.store.SaveEnriched(ctx, path, r.Matches); err != nil {
		return err
	}
	out.path = path
	out.result = r
	out.summary = SeasonSummary{
		Season:   code,
		Division: div,
		Matches:  len(r.Matches),
		Dropped:  r.Dropped,
		Teams:    len(r.Final),
	}
	return nil
}

func (p *Pipeline) flush(ctx context.Context, rep *Report, rows []model.EnrichedMatch) error {
	if err := p.sink.SaveEnriched(ctx, rep.RunID, rows); err != nil {
		return fmt.Errorf("sink matches: %w", err)
	}
	for _, div := range rep.Divisions {
		if final, ok := rep.Final[div]; ok {
			if err := p.sink.SaveRatings(ctx, rep.RunID, div, final); err != nil {
				return fmt.Errorf("sink ratings %s: %w", div, err)
			}
		}
	}
	if len(rep.Movements) > 0 {
		if err := p.sink.SaveMovements(ctx, rep.RunID, rep.Movements); err != nil {
			return fmt.Errorf("sink movements: %w", err)
		}
	}
	return nil
}
