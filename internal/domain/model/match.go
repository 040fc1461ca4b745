// Package model contains domain models passed between layers.
package model

import "time"

// Match is one played fixture as read from a results file.
// A zero Date means the source date was missing or unparseable.
type Match struct {
	Date      time.Time
	RawDate   string // date text as found in the source, kept for diagnostics
	HomeTeam  string
	AwayTeam  string
	HomeGoals int
	AwayGoals int
}

// EnrichedMatch is a Match annotated with the ratings and expectations that
// held immediately before kick-off.
type EnrichedMatch struct {
	Match

	Season   string
	Division string

	HomeRating   float64
	AwayRating   float64
	HomeExpected float64
	AwayExpected float64
}

// Before reports whether m sorts ahead of o in canonical processing order:
// date first, then home team, away team, home goals, away goals.
func (m Match) Before(o Match) bool {
	if !m.Date.Equal(o.Date) {
		return m.Date.Before(o.Date)
	}
	if m.HomeTeam != o.HomeTeam {
		return m.HomeTeam < o.HomeTeam
	}
	if m.AwayTeam != o.AwayTeam {
		return m.AwayTeam < o.AwayTeam
	}
	if m.HomeGoals != o.HomeGoals {
		return m.HomeGoals < o.HomeGoals
	}
	return m.AwayGoals < o.AwayGoals
}
