package repository

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"sync"

	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/types"
	"github.com/okian/footelo/pkg/logger"
	"github.com/okian/footelo/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then team ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the board from
// best to worst. Priorities come from a hash of the team name, which keeps
// the tree shape independent of insertion order.

// ratingScale controls fixed-point scaling from float64 so equal ratings
// compare equal after accumulated rounding noise.
const ratingScale = 1_000_000_000

type ratingFP int64

func toFixedPoint(x float64) ratingFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x*ratingScale >= math.MaxInt64:
		return ratingFP(math.MaxInt64)
	case x*ratingScale <= math.MinInt64:
		return ratingFP(math.MinInt64)
	}
	return ratingFP(math.Round(x * ratingScale))
}

type node struct {
	team   string
	rating ratingFP
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aTeam) appears before (bRating, bTeam).
func less(aRating ratingFP, aTeam string, bRating ratingFP, bTeam string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aTeam < bTeam
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func priority(team string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(team))
	return h.Sum64()
}

func insert(n *node, team string, r ratingFP) *node {
	if n == nil {
		return &node{team: team, rating: r, prio: priority(team), size: 1}
	}
	if less(r, team, n.rating, n.team) {
		n.left = insert(n.left, team, r)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, team, r)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// countAbove returns how many nodes hold a rating strictly greater than r.
func countAbove(n *node, r ratingFP) int {
	count := 0
	for n != nil {
		if n.rating > r {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// board is one division's leaderboard. Boards are immutable once built.
type board struct {
	root   *node
	byTeam map[string]float64
}

func buildBoard(ratings model.Snapshot) *board {
	b := &board{byTeam: make(map[string]float64, len(ratings))}
	for _, team := range ratings.Teams() {
		r := ratings[team]
		b.byTeam[team] = r
		b.root = insert(b.root, team, toFixedPoint(r))
	}
	return b
}

// TreapStore keeps one treap per division.
type TreapStore struct {
	mu     sync.RWMutex
	boards map[string]*board
	logger logger.Logger
}

// NewTreapStore constructs an empty store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{boards: make(map[string]*board)}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Replace builds the new board outside the lock and swaps it in, so readers
// always see either the old or the new board.
func (s *TreapStore) Replace(ctx context.Context, division string, ratings model.Snapshot) error {
	b := buildBoard(ratings)

	s.mu.Lock()
	s.boards[division] = b
	s.mu.Unlock()

	metrics.UpdateLeaderboardTeams(division, len(b.byTeam))
	s.logger.Debug(ctx, "leaderboard replaced",
		logger.String("division", division),
		logger.Int("teams", len(b.byTeam)),
	)
	return nil
}

// Rank returns the competition rank of a team: one plus the number of teams
// rated strictly higher.
func (s *TreapStore) Rank(_ context.Context, division, team string) (types.Entry, error) {
	s.mu.RLock()
	b, ok := s.boards[division]
	s.mu.RUnlock()
	if !ok {
		return types.Entry{}, ErrNotFound
	}

	r, ok := b.byTeam[team]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	return types.Entry{
		Rank:     countAbove(b.root, toFixedPoint(r)) + 1,
		Division: division,
		Team:     team,
		Rating:   r,
	}, nil
}

// TopN returns the top n entries. Tied ratings share a rank.
func (s *TreapStore) TopN(_ context.Context, division string, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	b, ok := s.boards[division]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	nodes := make([]*node, 0, min(n, len(b.byTeam)))
	collectTopN(b.root, n, &nodes)

	out := make([]types.Entry, len(nodes))
	for i, nd := range nodes {
		rank := i + 1
		if i > 0 && nd.rating == nodes[i-1].rating {
			rank = out[i-1].Rank
		}
		out[i] = types.Entry{Rank: rank, Division: division, Team: nd.team, Rating: b.byTeam[nd.team]}
	}
	return out, nil
}

// Count returns the number of teams on a division's board.
func (s *TreapStore) Count(_ context.Context, division string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.boards[division]; ok {
		return len(b.byTeam)
	}
	return 0
}

// Divisions lists divisions with a board.
func (s *TreapStore) Divisions(_ context.Context) []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.boards))
	for d := range s.boards {
		out = append(out, d)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

var _ Store = (*TreapStore)(nil)
