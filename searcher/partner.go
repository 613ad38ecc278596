package searcher

// NewPartner creates a cooperative variant of the UCT engine for
// single-player puzzles: both sides optimise the same objective, so
// node scores are oriented by the node's own turn during selection
// and leaves are evaluated with random playouts.
func NewPartner(options ...Option) *UCT {
	e := NewUCT()
	e.simulate = e.simulateMatch

	e.nodeScore = func(n *node) float64 {
		return -float64(n.turn) * n.score
	}

	for _, option := range options {
		option(e)
	}

	return e
}
