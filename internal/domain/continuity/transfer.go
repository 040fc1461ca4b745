package continuity

import (
	"sort"

	"github.com/okian/footelo/internal/domain/model"
)

// Candidate is a team taking part in a transfer, with its rating from the
// tier it is leaving. Rated is false when only the name is known.
type Candidate struct {
	Team   string
	Rating float64
	Rated  bool
}

// Assignment records one transferred rating.
type Assignment struct {
	Target       string
	Source       string
	SourceRating float64
	Rating       float64
}

// Names builds unrated candidates, keeping the given order.
func Names(teams []string) []Candidate {
	out := make([]Candidate, len(teams))
	for i, t := range teams {
		out[i] = Candidate{Team: t}
	}
	return out
}

// CandidatesFrom rates each team from ratings, falling back to def for
// teams without one. The second result lists the teams that fell back.
func CandidatesFrom(teams []string, ratings model.Snapshot, def float64) ([]Candidate, []string) {
	out := make([]Candidate, len(teams))
	var missing []string
	for i, t := range teams {
		r, ok := ratings.Get(t, def)
		if !ok {
			missing = append(missing, t)
		}
		out[i] = Candidate{Team: t, Rating: r, Rated: true}
	}
	return out, missing
}

// Transfer gives incoming targets the decayed ratings of the outgoing
// sources and writes them into seed.
//
// Sources are ranked best first. When every target is rated, targets are
// ranked best first too, so the strongest arrival inherits the strongest
// departure; otherwise targets keep their given order. Pairs are formed up
// to the shorter list. Unpaired entries on either side are left alone.
func Transfer(targets, sources []Candidate, cfg model.DecayConfig, seed model.Snapshot) []Assignment {
	if len(targets) == 0 || len(sources) == 0 {
		return nil
	}

	src := rankDescending(sources)
	dst := targets
	if allRated(targets) {
		dst = rankDescending(targets)
	}

	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}

	out := make([]Assignment, 0, n)
	for i := 0; i < n; i++ {
		r := Regress(src[i].Rating, cfg)
		seed[dst[i].Team] = r
		out = append(out, Assignment{
			Target:       dst[i].Team,
			Source:       src[i].Team,
			SourceRating: src[i].Rating,
			Rating:       r,
		})
	}
	return out
}

func allRated(cs []Candidate) bool {
	for _, c := range cs {
		if !c.Rated {
			return false
		}
	}
	return true
}

// rankDescending returns a copy ordered by rating, best first. Equal
// ratings fall back to name order so pairing never depends on input order.
func rankDescending(cs []Candidate) []Candidate {
	out := make([]Candidate, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Team < out[j].Team
	})
	return out
}
