package dataset

import "github.com/okian/footelo/pkg/logger"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithRawDir sets the directory holding downloaded results files.
func WithRawDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.rawDir = dir
		}
	}
}

// WithProcessedDir sets the directory that receives enriched outputs.
func WithProcessedDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.processedDir = dir
		}
	}
}

// WithCountry sets the file name prefix of the league.
func WithCountry(code string) Option {
	return func(s *Store) {
		if code != "" {
			s.country = code
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
