package service

import (
	"context"
	"fmt"

	"github.com/okian/footelo/internal/domain/movement"
)

// RosterSource derives movement tables from the rosters of loaded seasons.
type RosterSource struct {
	identifier *movement.Identifier
	divisions  []string
	rosters    map[string][]movement.Roster // season code -> roster per division
}

// NewRosterSource indexes the rosters of every division of every season.
func NewRosterSource(identifier *movement.Identifier, divisions []string, seasons []SeasonInput) *RosterSource {
	r := &RosterSource{
		identifier: identifier,
		divisions:  divisions,
		rosters:    make(map[string][]movement.Roster, len(seasons)),
	}
	for _, s := range seasons {
		row := make([]movement.Roster, len(divisions))
		for i, div := range divisions {
			if matches, ok := s.Matches[div]; ok {
				row[i] = movement.RosterOf(matches)
			}
		}
		r.rosters[s.Code] = row
	}
	return r
}

// Movements implements MovementSource.
func (r *RosterSource) Movements(ctx context.Context, prev, curr string) (movement.Table, error) {
	id := movement.TransitionID(prev, curr)
	if len(r.divisions) != 2 {
		return nil, fmt.Errorf("%s: need two divisions, have %d: %w", id, len(r.divisions), movement.ErrUnavailable)
	}
	p, c := r.rosters[prev], r.rosters[curr]
	if p == nil || c == nil {
		return nil, fmt.Errorf("%s: season not loaded: %w", id, movement.ErrUnavailable)
	}
	return r.identifier.Identify(ctx, id, movement.Rosters{
		PrevTier1: p[0], PrevTier2: p[1],
		CurrTier1: c[0], CurrTier2: c[1],
	})
}

// TableSource serves precomputed tables keyed by transition id.
type TableSource map[string]movement.Table

// Movements implements MovementSource.
func (t TableSource) Movements(_ context.Context, prev, curr string) (movement.Table, error) {
	id := movement.TransitionID(prev, curr)
	table, ok := t[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, movement.ErrUnavailable)
	}
	return table, nil
}
