package searcher

import (
	"gametree/game"
)

// MontecarloBias is the default exploration factor of the playout
// variants, which lack a heuristic to guide exploitation.
const MontecarloBias = 0.707

// NewMontecarlo creates a UCT engine that evaluates leaves with
// uniformly random playouts instead of the game heuristic.
func NewMontecarlo(options ...Option) *UCT {
	e := NewUCT(WithExplorationBias(MontecarloBias))
	e.simulate = e.simulateMatch

	for _, option := range options {
		option(e)
	}

	return e
}

// simulateMatch plays uniformly random moves until the game ends or
// the depth budget runs out, then rewinds the game and returns the
// reached outcome.
func (e *UCT) simulateMatch(g game.Game, maxDepth int) int {
	depth := 0

	for depth < maxDepth && !g.HasEnded() {
		g.MakeMove(e.randomMove(g))
		depth++
	}

	score := g.Outcome()
	g.UnmakeMoves(depth)

	return score
}

// randomMove picks a legal move uniformly at random with reservoir
// sampling, so the unknown length of the move generator does not skew
// the distribution.
func (e *UCT) randomMove(g game.Game) int {
	count := 0
	choice := game.NullMove

	for move := g.NextMove(); move != game.NullMove; move = g.NextMove() {
		count++

		if e.rng.Intn(count) == 0 {
			choice = move
		}
	}

	return choice
}
