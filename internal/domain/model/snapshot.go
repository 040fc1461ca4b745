package model

import "sort"

// Snapshot maps a team name to its rating. Names are case-sensitive and must
// match exactly across seasons.
type Snapshot map[string]float64

// Get returns the team's rating, or def when the team has none. The second
// result reports whether the rating was present.
func (s Snapshot) Get(team string, def float64) (float64, bool) {
	if r, ok := s[team]; ok {
		return r, true
	}
	return def, false
}

// Clone returns an independent copy. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Teams returns the team names in lexical order.
func (s Snapshot) Teams() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
