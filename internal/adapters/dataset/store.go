// Package dataset reads football-data style results files and writes the
// enriched and movement tables derived from them.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/movement"
	"github.com/okian/footelo/pkg/logger"
)

const movementsDir = "promotion"

// Store resolves league files on disk.
type Store struct {
	rawDir       string
	processedDir string
	country      string
	logger       logger.Logger
}

// NewStore creates a Store rooted at data/raw and data/processed unless
// overridden.
func NewStore(opts ...Option) *Store {
	s := &Store{
		rawDir:       filepath.Join("data", "raw"),
		processedDir: filepath.Join("data", "processed"),
		country:      "SP",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// RawPath is the results file of one season and division.
func (s *Store) RawPath(season, division string) string {
	return filepath.Join(s.rawDir, fmt.Sprintf("%s_%s_%s.csv", s.country, season, division))
}

// EnrichedPath is the single-season output file; suffix is appended after "_elo".
func (s *Store) EnrichedPath(season, division, suffix string) string {
	return filepath.Join(s.processedDir, fmt.Sprintf("%s_%s_%s_elo%s.csv", s.country, season, division, suffix))
}

// CombinedPath is the multi-season output file of a division.
func (s *Store) CombinedPath(division, first, last string, transfer bool) string {
	tag := "_multi"
	if transfer {
		tag = "_transfer"
	}
	return filepath.Join(s.processedDir, fmt.Sprintf("%s_%s_to_%s%s.csv", division, first, last, tag))
}

// MovementsPath is the movement table for the transition into season.
func (s *Store) MovementsPath(season string) string {
	return filepath.Join(s.processedDir, movementsDir, fmt.Sprintf("%s_%s_promotion_relegation.csv", s.country, season))
}

// LoadSeason reads the results file of one season and division. A missing
// file is reported as ErrNotFound.
func (s *Store) LoadSeason(ctx context.Context, season, division string) ([]model.Match, error) {
	path := s.RawPath(season, division)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	matches, skipped, err := ReadMatches(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if skipped > 0 {
		s.logger.Warn(ctx, "skipped unusable rows",
			logger.String("file", path),
			logger.Int("skipped", skipped),
		)
	}
	s.logger.Debug(ctx, "loaded season",
		logger.String("season", season),
		logger.String("division", division),
		logger.Int("matches", len(matches)),
	)
	return matches, nil
}

// SaveSeason writes matches as the results file of one season and division.
func (s *Store) SaveSeason(_ context.Context, season, division string, matches []model.Match) (string, error) {
	path := s.RawPath(season, division)
	if err := writeFile(path, func(f *os.File) error { return WriteResults(f, division, matches) }); err != nil {
		return "", err
	}
	return path, nil
}

// SaveEnriched writes rows to path, creating parent directories.
func (s *Store) SaveEnriched(ctx context.Context, path string, rows []model.EnrichedMatch) error {
	if err := writeFile(path, func(f *os.File) error { return WriteEnriched(f, rows) }); err != nil {
		return err
	}
	s.logger.Info(ctx, "wrote enriched matches",
		logger.String("file", path),
		logger.Int("rows", len(rows)),
	)
	return nil
}

// SaveMovements persists the movement table for the transition into season.
func (s *Store) SaveMovements(ctx context.Context, season string, table movement.Table) error {
	path := s.MovementsPath(season)
	if err := writeFile(path, func(f *os.File) error { return WriteMovements(f, table) }); err != nil {
		return err
	}
	s.logger.Info(ctx, "wrote movements",
		logger.String("file", path),
		logger.Int("rows", len(table)),
	)
	return nil
}

// LoadMovements reads a previously saved movement table. Rows with blank
// team names are dropped.
func (s *Store) LoadMovements(_ context.Context, season string) (movement.Table, error) {
	path := s.MovementsPath(season)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	table, err := ReadMovements(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return table.Clean(), nil
}

func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
