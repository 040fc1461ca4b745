package model

// Tier identifies a competitive division by level.
type Tier string

// Modeled tiers.
const (
	Tier1 Tier = "tier1"
	Tier2 Tier = "tier2"
)

// TierOf returns the tier for a zero-based division index.
func TierOf(idx int) Tier {
	if idx == 0 {
		return Tier1
	}
	return Tier2
}

// Status is the direction a team moved between two seasons.
type Status string

// Movement directions.
const (
	Promoted  Status = "promoted"
	Relegated Status = "relegated"
)

// Movement records one team changing tier across a season transition.
type Movement struct {
	Transition string // e.g. "2223_2324"
	Tier       Tier
	Team       string
	Status     Status
}

// DecayConfig controls off-season regression toward RegressionPoint.
type DecayConfig struct {
	Factor          float64 // in [0,1]; 1 keeps ratings, 0 resets them
	RegressionPoint float64
}
