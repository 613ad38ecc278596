// Package searcher implements the tree-search engines: Negamax with
// iterative deepening, its MTD(f) zero-window refinement, and the
// Monte-Carlo family (UCT, PUCT, Montecarlo, Partner) with terminal
// proof propagation, tree reuse and bounded-memory pruning.
//
// Engines are single-threaded: at most one ComputeBestMove runs on an
// engine at a time, and the only concurrent interaction is the
// cooperative abort signal of its clock.
package searcher

import (
	"time"

	"gametree/cache"
	"gametree/game"
	"gametree/leaves"
)

const (
	// MaxDepth is the hard ply ceiling of any search.
	MaxDepth = 254

	// MinDepth is the depth of the first deepening iteration.
	MinDepth = 2

	// DefaultMoveTime is the time budget of a move computation when
	// none is configured.
	DefaultMoveTime = 3600 * time.Millisecond
)

// Report is a snapshot of an ongoing or finished search, emitted
// periodically to the attached consumer channels.
type Report struct {
	Move  int
	Score int
	Depth int
	Nodes int64
	PV    []int
}

// Engine computes best moves for game positions.
type Engine interface {
	// SetContempt adjusts the evaluation of drawn positions.
	SetContempt(score int)

	// SetInfinity sets the maximum score a position can obtain.
	SetInfinity(score int)

	// SetMoveTime sets the time budget per move computation.
	SetMoveTime(d time.Duration)

	// SetDepth limits the maximum search depth in plies.
	SetDepth(depth int)

	// NewMatch discards all the state of previous computations.
	NewMatch()

	// ComputeBestMove returns the best move found for the current
	// position of the game, or NullMove if the game ended. The game
	// object is mutated during the computation and must not be
	// touched concurrently.
	ComputeBestMove(g game.Game) (int, error)

	// ComputeBestScore returns the score of the best move from the
	// point of view of the player to move.
	ComputeBestScore(g game.Game) (int, error)

	// AbortComputation retargets the countdown of the ongoing
	// computation; a non-positive delay aborts at once.
	AbortComputation(d time.Duration)

	// GetPonderMove returns an expected reply for the current
	// position of the game, or NullMove if none is known.
	GetPonderMove(g game.Game) int

	// Attach subscribes a channel to search reports. Delivery is
	// non-blocking: a full channel drops the report.
	Attach(consumer chan<- Report)
}

// HasCache is implemented by engines that consult a transposition
// cache.
type HasCache interface {
	SetCache(c cache.Cache)
}

// HasLeaves is implemented by engines that consult an endgame
// database.
type HasLeaves interface {
	SetLeaves(l leaves.Leaves)
}
