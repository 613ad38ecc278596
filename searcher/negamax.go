package searcher

import (
	"gametree/cache"
	"gametree/game"
	"gametree/leaves"
)

// Negamax is an alpha-beta engine with iterative deepening,
// transposition-driven move ordering and aspiration windows. The
// recursion is in negamax form: every score is from the point of view
// of the player to move at the node.
type Negamax struct {
	base
	cache      cache.Cache
	leaves     leaves.Leaves
	nodes      int64
	bestScore  int
	scoreDepth int
}

var _ Engine = (*Negamax)(nil)
var _ HasCache = (*Negamax)(nil)
var _ HasLeaves = (*Negamax)(nil)

// NewNegamax creates an engine with a default transposition table and
// an empty endgame database.
func NewNegamax() *Negamax {
	return &Negamax{
		base:   newBase(),
		cache:  cache.NewTable(),
		leaves: leaves.NewNull(),
	}
}

// SetCache replaces the transposition cache.
func (e *Negamax) SetCache(c cache.Cache) {
	if c != nil {
		e.cache = c
	}
}

// SetLeaves replaces the endgame database.
func (e *Negamax) SetLeaves(l leaves.Leaves) {
	if l != nil {
		e.leaves = l
	}
}

// NewMatch discards the clock countdown and the cached entries of
// previous computations.
func (e *Negamax) NewMatch() {
	e.clock.CancelCountDown()
	e.cache.Clear()
}

// ComputeBestScore returns the score of the best move from the point
// of view of the player to move.
func (e *Negamax) ComputeBestScore(g game.Game) (int, error) {
	if g.HasEnded() {
		return g.Outcome() * g.Turn(), nil
	}

	if _, err := e.ComputeBestMove(g); err != nil {
		return 0, err
	}

	return e.bestScore, nil
}

// GetPonderMove returns the cached reply for the current position.
func (e *Negamax) GetPonderMove(g game.Game) int {
	entry, ok := e.cache.Find(g)

	if ok && entry.Move != game.NullMove && g.IsLegal(entry.Move) {
		return entry.Move
	}

	return game.NullMove
}

// ComputeBestMove searches the current position of the game. It
// deepens two plies per iteration starting at MinDepth and stops when
// the countdown expires after at least one completed iteration, the
// depth limit is reached, or an exact win or loss is proven. An
// aborted iteration falls back to the previous completed one.
func (e *Negamax) ComputeBestMove(g game.Game) (int, error) {
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

	// Move the hash move to the front, shifting the first entries
	// right so the heuristic ordering of the rest is preserved.

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
	window := 1 + e.maxScore/32

	for depth := MinDepth; ; depth += 2 {
		var score, move int

		if depth == MinDepth {
			score, move = e.searchRoot(g, rootMoves, -e.maxScore, e.maxScore, depth)
		} else {
			alpha := max(-e.maxScore, e.bestScore-window)
			beta := min(e.maxScore, e.bestScore+window)
			score, move = e.searchRoot(g, rootMoves, alpha, beta, depth)

			if (score <= alpha || score >= beta) && !e.aborted() {
				score, move = e.searchRoot(g, rootMoves, -e.maxScore, e.maxScore, depth)
			}
		}

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

// searchRoot scores every root move with fail-soft alpha-beta and
// returns the best score and move found.
func (e *Negamax) searchRoot(g game.Game, moves []int, alpha, beta, depth int) (int, int) {
	best := -e.maxScore - 1
	bestMove := moves[0]

	for _, move := range moves {
		g.MakeMove(move)
		score := -e.search(g, -beta, -alpha, depth-1)
		g.UnmakeMove()

		if e.aborted() && depth > MinDepth {
			break
		}

		if score > best {
			best = score
			bestMove = move
		}

		if best > alpha {
			alpha = best

			if alpha >= beta {
				break
			}
		}
	}

	return best, bestMove
}

// search is the negamax recursion. Scores returned and cached are
// from the point of view of the player to move at the node.
func (e *Negamax) search(g game.Game, alpha, beta, depth int) int {
	if e.aborted() {
		return alpha
	}

	e.nodes++

	if g.HasEnded() {
		return g.Outcome() * g.Turn()
	}

	if entry, ok := e.leaves.Probe(g); ok {
		score := entry.Score * g.Turn()

		switch orientFlag(entry.Flag, g.Turn()) {
		case cache.Exact:
			return score
		case cache.Lower:
			if score >= beta {
				return score
			}

			if score > alpha {
				alpha = score
			}
		case cache.Upper:
			if score <= alpha {
				return score
			}

			if score < beta {
				beta = score
			}
		}
	}

	if depth <= 0 {
		return g.Score() * g.Turn()
	}

	hashMove := game.NullMove

	if entry, ok := e.cache.Find(g); ok {
		hashMove = entry.Move

		if entry.Depth >= depth {
			switch entry.Flag {
			case cache.Exact:
				return entry.Score
			case cache.Lower:
				if entry.Score > alpha {
					alpha = entry.Score
				}
			case cache.Upper:
				if entry.Score < beta {
					beta = entry.Score
				}
			}

			if alpha >= beta {
				return entry.Score
			}
		}
	}

	alpha0 := alpha
	best := -e.maxScore - 1
	bestMove := game.NullMove

	if hashMove != game.NullMove && g.IsLegal(hashMove) {
		g.MakeMove(hashMove)
		best = -e.search(g, -beta, -alpha, depth-1)
		g.UnmakeMove()
		bestMove = hashMove

		if best > alpha {
			alpha = best
		}
	}

	if alpha < beta {
		for move := g.NextMove(); move != game.NullMove; move = g.NextMove() {
			if move == hashMove {
				continue
			}

			g.MakeMove(move)
			score := -e.search(g, -beta, -alpha, depth-1)
			g.UnmakeMove()

			if e.aborted() {
				break
			}

			if score > best {
				best = score
				bestMove = move
			}

			if best > alpha {
				alpha = best

				if alpha >= beta {
					break
				}
			}
		}
	}

	if best < -e.maxScore {
		// No move admitted: score the position as an endgame.
		return g.Outcome() * g.Turn()
	}

	if !e.aborted() {
		flag := cache.Exact

		if best >= beta {
			flag = cache.Lower
		} else if best <= alpha0 {
			flag = cache.Upper
		}

		e.cache.Store(g, best, bestMove, depth, flag)
	}

	return best
}

// report emits a search snapshot with the principal variation
// recovered from the cache.
func (e *Negamax) report(g game.Game, move, depth int) {
	e.emit(Report{
		Move:  move,
		Score: e.bestScore,
		Depth: depth,
		Nodes: e.nodes,
		PV:    e.recoverPV(g, depth),
	})
}

// recoverPV walks the cache hash moves from the current position.
func (e *Negamax) recoverPV(g game.Game, depth int) []int {
	var pv []int

	for len(pv) < depth && !g.HasEnded() {
		entry, ok := e.cache.Find(g)

		if !ok || entry.Move == game.NullMove || !g.IsLegal(entry.Move) {
			break
		}

		pv = append(pv, entry.Move)
		g.MakeMove(entry.Move)
	}

	g.UnmakeMoves(len(pv))

	return pv
}

// orientFlag converts a south-view bound flag to the mover's view.
func orientFlag(flag cache.Flag, turn int) cache.Flag {
	if turn == game.South {
		return flag
	}

	switch flag {
	case cache.Lower:
		return cache.Upper
	case cache.Upper:
		return cache.Lower
	}

	return flag
}

func moveToFront(moves []int, move int) {
	for i, m := range moves {
		if m == move {
			copy(moves[1:i+1], moves[:i])
			moves[0] = move
			return
		}
	}
}

func abs(value int) int {
	if value < 0 {
		return -value
	}

	return value
}
