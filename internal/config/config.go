// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file and env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address used in serve mode, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Serve keeps the process running and exposes the ratings API.
	Serve bool `koanf:"serve"`

	// RefreshSchedule is a cron spec for re-running the pipeline in serve mode.
	// Empty disables refreshes.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// RawDir holds downloaded results files, ProcessedDir receives outputs.
	RawDir       string `koanf:"raw_dir"`
	ProcessedDir string `koanf:"processed_dir"`

	// Country is the file prefix of the league, e.g. "SP".
	Country string `koanf:"country"`

	// Divisions is a comma list of division codes, top tier first, e.g. "SP1,SP2".
	Divisions string `koanf:"divisions"`

	// Seasons is a comma list of season start years, e.g. "2021,2022" or "21,22".
	Seasons string `koanf:"seasons"`

	// MultiSeason chains seasons with rating continuity. When false every
	// season/division file is rated independently.
	MultiSeason bool `koanf:"multi_season"`

	// Rating parameters.
	InitialRating   float64 `koanf:"initial_rating"`
	KFactor         float64 `koanf:"k_factor"`
	DecayTier1      float64 `koanf:"decay_tier1"`
	DecayTier2      float64 `koanf:"decay_tier2"`
	RegressionPoint float64 `koanf:"regression_point"`

	// EloTransfer enables cross-tier rating transfer at season boundaries.
	EloTransfer bool `koanf:"elo_transfer"`

	// Workers rates single-season files in parallel. Zero uses one worker
	// per CPU.
	Workers int `koanf:"workers"`

	// DatabaseURL enables the Postgres sink when set.
	DatabaseURL string `koanf:"database_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		RawDir:          "data/raw",
		ProcessedDir:    "data/processed",
		Country:         "SP",
		Divisions:       "SP1,SP2",
		Seasons:         "2024",
		MultiSeason:     true,
		InitialRating:   1500,
		KFactor:         32,
		DecayTier1:      0.95,
		DecayTier2:      0.95,
		RegressionPoint: 1500,
		Workers:         4,
	}
}

// DivisionList returns the configured divisions, trimmed, in tier order.
func (c *Config) DivisionList() []string {
	return splitList(c.Divisions)
}

// SeasonCodes converts the configured start years to season codes.
func (c *Config) SeasonCodes() ([]string, error) {
	return ParseStartYears(c.Seasons)
}

// DecayFor returns the decay factor of the zero-based division index.
func (c *Config) DecayFor(idx int) float64 {
	if idx == 0 {
		return c.DecayTier1
	}
	return c.DecayTier2
}

// Validate checks value ranges and list shapes.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "" && c.Serve:
		return fmt.Errorf("%w: addr must not be empty in serve mode", ErrInvalidConfig)
	case strings.TrimSpace(c.Country) == "":
		return fmt.Errorf("%w: country must not be empty", ErrInvalidConfig)
	case c.KFactor <= 0:
		return fmt.Errorf("%w: k_factor must be positive, got %v", ErrInvalidConfig, c.KFactor)
	case c.DecayTier1 < 0 || c.DecayTier1 > 1:
		return fmt.Errorf("%w: decay_tier1 must be within [0,1], got %v", ErrInvalidConfig, c.DecayTier1)
	case c.DecayTier2 < 0 || c.DecayTier2 > 1:
		return fmt.Errorf("%w: decay_tier2 must be within [0,1], got %v", ErrInvalidConfig, c.DecayTier2)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}

	divs := c.DivisionList()
	if len(divs) == 0 || len(divs) > 2 {
		return fmt.Errorf("%w: divisions must name one or two divisions, got %q", ErrInvalidConfig, c.Divisions)
	}

	seasons, err := c.SeasonCodes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(seasons) == 0 {
		return fmt.Errorf("%w: at least one season is required", ErrInvalidConfig)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
