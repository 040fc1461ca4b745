// Package repository holds the latest final ratings of every division in
// rank order for the read API.
package repository

import (
	"context"

	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/types"
)

// Store provides read/write access to the per-division leaderboards.
type Store interface {
	// Replace swaps a division's board for the given ratings.
	Replace(ctx context.Context, division string, ratings model.Snapshot) error

	// Rank returns the current rank and rating of a team.
	// Returns ErrNotFound if the division or team is unknown.
	Rank(ctx context.Context, division, team string) (types.Entry, error)

	// TopN returns the top-N entries ordered by rating desc, team asc.
	TopN(ctx context.Context, division string, n int) ([]types.Entry, error)

	// Count returns the number of teams on a division's board.
	Count(ctx context.Context, division string) int

	// Divisions lists the divisions holding a board, sorted.
	Divisions(ctx context.Context) []string
}
