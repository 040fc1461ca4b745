// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank     int     `json:"rank"`
	Division string  `json:"division"`
	Team     string  `json:"team"`
	Rating   float64 `json:"rating"`
}

// MovementRow is the wire shape of one promotion/relegation record.
type MovementRow struct {
	Transition string `json:"transition"`
	Tier       string `json:"tier"`
	Team       string `json:"team"`
	Status     string `json:"status"`
}
