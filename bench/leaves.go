package bench

import (
	"gametree/game"
	"gametree/leaves"
)

// Leaves meters a decorated endgame database.
type Leaves struct {
	stats *Stats
	inner leaves.Leaves
}

var _ leaves.Leaves = (*Leaves)(nil)

// NewLeaves decorates an endgame database with the given accumulator.
func NewLeaves(stats *Stats, inner leaves.Leaves) *Leaves {
	return &Leaves{stats: stats, inner: inner}
}

// Inner returns the decorated database.
func (l *Leaves) Inner() leaves.Leaves {
	return l.inner
}

// Probe counts a lookup.
func (l *Leaves) Probe(g game.Game) (leaves.Entry, bool) {
	l.stats.Leaves.Increment()
	return l.inner.Probe(g)
}
