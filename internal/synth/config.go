package synth

// Config describes a synthetic two-tier league.
type Config struct {
	Country   string   // file prefix, e.g. "SP"
	Divisions []string // division codes, top tier first
	StartYear int      // first season's start year
	Seasons   int      // number of consecutive seasons
	Teams     int      // clubs per division
	Swap      int      // clubs promoted and relegated between adjacent tiers
	Seed      int64    // RNG seed; equal seeds give equal leagues
}

// DefaultConfig returns a small league suitable for demos and tests.
func DefaultConfig() Config {
	return Config{
		Country:   "SP",
		Divisions: []string{"SP1", "SP2"},
		StartYear: 2021,
		Seasons:   3,
		Teams:     10,
		Swap:      2,
		Seed:      1,
	}
}

// Tier strength centres and spread, on the Elo scale.
const (
	topStrength    = 1650.0
	tierGap        = 150.0
	strengthSpread = 60.0
	seasonDrift    = 25.0
	goalsPerMatch  = 2.7
	homeAdvantage  = 1.15
	matchdayGap    = 7
)
