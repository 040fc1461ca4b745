// Package continuity carries ratings across season boundaries: off-season
// regression toward a baseline and remapping between tiers when teams are
// promoted or relegated.
package continuity

import "github.com/okian/footelo/internal/domain/model"

// Regress pulls r toward rp by factor: rp + (r-rp)*factor.
func Regress(r float64, cfg model.DecayConfig) float64 {
	return cfg.RegressionPoint + (r-cfg.RegressionPoint)*cfg.Factor
}

// Decay returns the seed for the next season: every rating in final
// regressed toward the configured point. final is not modified.
func Decay(final model.Snapshot, cfg model.DecayConfig) model.Snapshot {
	out := make(model.Snapshot, len(final))
	for team, r := range final {
		out[team] = Regress(r, cfg)
	}
	return out
}
