package searcher

import (
	"math"
)

// NewPUCT creates a predictor variant of the UCT engine. Each node
// remembers a prior proportional to its first evaluation, and the
// selection trades the visit ratio against that prior instead of the
// global exploration bias.
func NewPUCT(options ...Option) *UCT {
	e := NewUCT()

	e.factorOf = func(count int64) float64 {
		return math.Sqrt(float64(count))
	}

	e.priority = func(n *node, factor float64) float64 {
		explore := factor / float64(n.count)
		return e.nodeScore(n) - explore*n.bias
	}

	e.evaluated = func(index int32, score float64) {
		e.tree.at(index).bias = e.exploreFactor * math.Abs(score)
	}

	for _, option := range options {
		option(e)
	}

	return e
}
