package searcher

import (
	"gametree/cache"
	"gametree/game"
)

// MTDf refines the Negamax search with zero-window probes: at each
// deepening iteration it brackets the minimax value with null windows
// seeded from the previous score until the bounds meet. It shares the
// Negamax recursion and cache, so both engines agree on every root
// score.
type MTDf struct {
	Negamax
}

var _ Engine = (*MTDf)(nil)

// NewMTDf creates an engine with a default transposition table and an
// empty endgame database.
func NewMTDf() *MTDf {
	return &MTDf{Negamax: *NewNegamax()}
}

// ComputeBestScore returns the score of the best move from the point
// of view of the player to move.
func (e *MTDf) ComputeBestScore(g game.Game) (int, error) {
	if g.HasEnded() {
		return g.Outcome() * g.Turn(), nil
	}

	if _, err := e.ComputeBestMove(g); err != nil {
		return 0, err
	}

	return e.bestScore, nil
}

// ComputeBestMove searches the current position of the game with
// iterative deepening over zero-window probes. Abort semantics match
// the plain Negamax: an aborted iteration falls back to the previous
// completed one.
func (e *MTDf) ComputeBestMove(g game.Game) (int, error) {
	if g.HasEnded() {
		e.bestScore = g.Outcome() * g.Turn()
		return game.NullMove, nil
	}

	e.turn = g.Turn()

	if e.maxScore == 0 {
		e.maxScore = g.Infinity()
	}

	e.clock.ScheduleCountDown(e.moveTime)
	defer e.clock.CancelCountDown()

	if err := g.EnsureCapacity(MaxDepth + g.Length()); err != nil {
		return game.NullMove, err
	}

	e.cache.Discharge()
	e.nodes = 0
	e.scoreDepth = 0
	e.bestScore = game.DrawScore

	rootMoves := g.LegalMoves()

	if len(rootMoves) == 0 {
		return game.NullMove, nil
	}

	if entry, ok := e.cache.Find(g); ok && entry.Move != game.NullMove {
		limit := min(6, len(rootMoves))

		for i := 0; i < limit; i++ {
			if rootMoves[i] == entry.Move {
				copy(rootMoves[1:i+1], rootMoves[:i])
				rootMoves[0] = entry.Move
				e.bestScore = entry.Score
				break
			}
		}
	}

	bestMove := rootMoves[0]
	lastMove := game.NullMove
	lastScore := e.maxScore

	for depth := MinDepth; ; depth += 2 {
		score, move := e.bracket(g, rootMoves, depth)

		if e.aborted() && depth > MinDepth {
			bestMove = lastMove
			e.bestScore = lastScore
			break
		}

		bestMove = move
		e.bestScore = score
		e.scoreDepth = depth
		moveToFront(rootMoves, bestMove)
		e.cache.Store(g, e.bestScore, bestMove, depth, cache.Exact)

		if bestMove != lastMove || e.bestScore != lastScore {
			e.report(g, bestMove, depth)
		}

		if abs(e.bestScore) == e.maxScore {
			break
		}

		if e.aborted() || depth >= e.maxDepth {
			break
		}

		lastMove = bestMove
		lastScore = e.bestScore
	}

	e.cache.Store(g, e.bestScore, bestMove, e.scoreDepth, cache.Exact)
	e.report(g, bestMove, e.scoreDepth)

	return bestMove, nil
}

// bracket narrows the root score with null-window probes until the
// lower and upper bounds meet, seeding each guess from the best score
// known so far.
func (e *MTDf) bracket(g game.Game, moves []int, depth int) (int, int) {
	lower := -e.maxScore
	upper := e.maxScore
	best := e.bestScore
	bestMove := moves[0]

	for lower < upper {
		if e.aborted() && depth > MinDepth {
			break
		}

		guess := max(best, lower+1)
		score, move := e.searchRoot(g, moves, guess-1, guess, depth)
		best = score
		bestMove = move

		if best < guess {
			upper = best
		} else {
			lower = best
		}
	}

	return best, bestMove
}
