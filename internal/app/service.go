// Package service runs the rating pipeline and implements the dependencies
// required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	repository "github.com/okian/footelo/internal/adapters/repository"
	"github.com/okian/footelo/internal/domain/movement"
	"github.com/okian/footelo/internal/domain/types"
	"github.com/okian/footelo/pkg/logger"
)

// Runner produces a pipeline report. *Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// Service publishes pipeline results to the leaderboards and serves reads.
type Service struct {
	mu sync.RWMutex
	// refreshMu serialises pipeline runs.
	refreshMu sync.Mutex

	// Core components
	runner      Runner
	leaderboard repository.Store
	scheduler   *cron.Cron

	// Configuration
	schedule string

	// State
	started   bool
	last      *Report
	lastErr   error
	refreshes int
	movements movement.Table

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRunner sets the pipeline the service refreshes from.
func WithRunner(r Runner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithLeaderboard sets the leaderboard store.
func WithLeaderboard(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.leaderboard = store
		}
	}
}

// WithRefreshSchedule sets a cron spec for periodic refreshes.
func WithRefreshSchedule(spec string) Option {
	return func(s *Service) {
		s.schedule = spec
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.leaderboard == nil {
		s.leaderboard = repository.NewTreapStore(repository.WithLogger(s.logger))
	}
	return s
}

// Start runs the pipeline once and, when a schedule is configured, keeps
// refreshing on it until Stop. A failed first run is returned.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting ratings service...")
	if err := s.Refresh(ctx); err != nil {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		return err
	}

	if s.schedule != "" {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err := c.AddFunc(s.schedule, func() {
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error(ctx, "scheduled refresh failed", logger.Error(err))
			}
		}); err != nil {
			s.mu.Lock()
			s.started = false
			s.mu.Unlock()
			return err
		}
		c.Start()

		s.mu.Lock()
		s.scheduler = c
		s.mu.Unlock()
		s.logger.Info(ctx, "refresh scheduled", logger.String("schedule", s.schedule))
	}

	s.logger.Info(ctx, "ratings service started")
	return nil
}

// Stop halts scheduled refreshes and waits for a running one to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	c := s.scheduler
	s.scheduler = nil
	s.started = false
	s.mu.Unlock()

	s.logger.Info(context.Background(), "stopping ratings service...")
	if c != nil {
		<-c.Stop().Done()
	}
	s.logger.Info(context.Background(), "ratings service stopped")
}

// Refresh runs the pipeline and republishes every division's board.
func (s *Service) Refresh(ctx context.Context) error {
	if s.runner == nil {
		return ErrNoRunner
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	rep, err := s.runner.Run(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	for _, div := range rep.Divisions {
		final, ok := rep.Final[div]
		if !ok {
			continue
		}
		if err := s.leaderboard.Replace(ctx, div, final); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.last = rep
	s.lastErr = nil
	s.refreshes++
	s.movements = rep.Movements
	s.mu.Unlock()

	s.logger.Info(ctx, "leaderboards published",
		logger.String("run_id", rep.RunID),
		logger.Strings("divisions", rep.Divisions),
	)
	return nil
}

// TopN returns the top N entries of a division.
func (s *Service) TopN(ctx context.Context, division string, n int) ([]types.Entry, error) {
	return s.leaderboard.TopN(ctx, division, n)
}

// Rank returns the rank and rating of a team in a division.
func (s *Service) Rank(ctx context.Context, division, team string) (types.Entry, error) {
	return s.leaderboard.Rank(ctx, division, team)
}

// Movements returns the promotion/relegation rows of the last run,
// optionally restricted to one transition.
func (s *Service) Movements(_ context.Context, transition string) []types.MovementRow {
	s.mu.RLock()
	table := s.movements
	s.mu.RUnlock()

	if transition != "" {
		table = table.ForTransition(transition)
	}
	out := make([]types.MovementRow, len(table))
	for i, m := range table {
		out[i] = types.MovementRow{
			Transition: m.Transition,
			Tier:       string(m.Tier),
			Team:       m.Team,
			Status:     string(m.Status),
		}
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":   s.started,
		"refreshes": s.refreshes,
		"schedule":  s.schedule,
	}
	if s.lastErr != nil {
		stats["lastError"] = s.lastErr.Error()
	}

	teams := map[string]int{}
	for _, div := range s.leaderboard.Divisions(ctx) {
		teams[div] = s.leaderboard.Count(ctx, div)
	}
	stats["teams"] = teams

	if s.last != nil {
		stats["runId"] = s.last.RunID
		stats["seasons"] = s.last.Seasons
		stats["multiSeason"] = s.last.MultiSeason
		stats["transfer"] = s.last.Transfer
		stats["transfers"] = len(s.last.Transfers)
		stats["lastRun"] = s.last.Finished.Format(time.RFC3339)
		stats["summaries"] = s.last.Summaries
	}
	return stats
}
