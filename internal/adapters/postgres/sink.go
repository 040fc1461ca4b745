// Package postgres persists pipeline runs into a Postgres database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/lib/pq"

	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/movement"
	"github.com/okian/footelo/pkg/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS enriched_matches (
		run_id        TEXT NOT NULL,
		season        TEXT NOT NULL,
		division      TEXT NOT NULL,
		match_date    DATE NOT NULL,
		home_team     TEXT NOT NULL,
		away_team     TEXT NOT NULL,
		home_goals    INTEGER NOT NULL,
		away_goals    INTEGER NOT NULL,
		home_elo      DOUBLE PRECISION NOT NULL,
		away_elo      DOUBLE PRECISION NOT NULL,
		home_expected DOUBLE PRECISION NOT NULL,
		away_expected DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS enriched_matches_run_idx ON enriched_matches (run_id, division)`,
	`CREATE TABLE IF NOT EXISTS final_ratings (
		run_id   TEXT NOT NULL,
		division TEXT NOT NULL,
		team     TEXT NOT NULL,
		rating   DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, division, team)
	)`,
	`CREATE TABLE IF NOT EXISTS movements (
		run_id     TEXT NOT NULL,
		transition TEXT NOT NULL,
		tier       TEXT NOT NULL,
		team       TEXT NOT NULL,
		status     TEXT NOT NULL
	)`,
}

var enrichedColumns = []string{
	"run_id", "season", "division", "match_date", "home_team", "away_team",
	"home_goals", "away_goals", "home_elo", "away_elo", "home_expected", "away_expected",
}

// Sink writes enriched matches, final ratings and movement tables.
type Sink struct {
	mu     sync.Mutex
	db     *sql.DB
	logger logger.Logger
}

// Option applies a configuration option to the Sink.
type Option func(*Sink)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// New opens dsn and verifies the connection.
func New(ctx context.Context, dsn string, opts ...Option) (*Sink, error) {
	s := &Sink{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrConnect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrConnect, err)
	}
	s.db = db
	s.logger.Info(ctx, "postgres sink connected")
	return s, nil
}

// EnsureSchema creates the tables when missing.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveEnriched bulk-loads rows with COPY.
func (s *Sink) SaveEnriched(ctx context.Context, runID string, rows []model.EnrichedMatch) error {
	if len(rows) == 0 {
		return nil
	}
	return s.tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("enriched_matches", enrichedColumns...))
		if err != nil {
			return err
		}
		for _, m := range rows {
			if _, err := stmt.ExecContext(ctx,
				runID, m.Season, m.Division, m.Date,
				m.HomeTeam, m.AwayTeam, m.HomeGoals, m.AwayGoals,
				m.HomeRating, m.AwayRating, m.HomeExpected, m.AwayExpected,
			); err != nil {
				_ = stmt.Close()
				return err
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			_ = stmt.Close()
			return err
		}
		if err := stmt.Close(); err != nil {
			return err
		}
		s.logger.Debug(ctx, "enriched matches stored",
			logger.String("run_id", runID),
			logger.Int("rows", len(rows)),
		)
		return nil
	})
}

// SaveRatings replaces a division's final ratings for runID.
func (s *Sink) SaveRatings(ctx context.Context, runID, division string, ratings model.Snapshot) error {
	teams := make([]string, 0, len(ratings))
	for t := range ratings {
		teams = append(teams, t)
	}
	sort.Strings(teams)

	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM final_ratings WHERE run_id = $1 AND division = $2`, runID, division); err != nil {
			return err
		}
		for _, t := range teams {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO final_ratings (run_id, division, team, rating) VALUES ($1, $2, $3, $4)`,
				runID, division, t, ratings[t]); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveMovements stores a movement table for runID.
func (s *Sink) SaveMovements(ctx context.Context, runID string, table movement.Table) error {
	if len(table) == 0 {
		return nil
	}
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, m := range table {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO movements (run_id, transition, tier, team, status) VALUES ($1, $2, $3, $4, $5)`,
				runID, m.Transition, string(m.Tier), m.Team, string(m.Status)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the connection pool.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Sink) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

func (s *Sink) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
