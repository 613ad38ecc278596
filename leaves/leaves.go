// Package leaves defines the endgame-leaves oracle consulted by the
// search engines: a read-only database that resolves known
// terminal-zone positions to exact scores.
package leaves

import (
	"gametree/cache"
	"gametree/game"
)

// Entry is the resolution of a known position: an exact score in
// engine units from south's point of view, qualified by a bound flag.
type Entry struct {
	Score int
	Flag  cache.Flag
}

// Leaves resolves positions against an endgame database.
type Leaves interface {
	// Probe returns the stored resolution of the current position
	// of the game, if the database knows it.
	Probe(g game.Game) (Entry, bool)
}

// Null is the fallback oracle: it knows no position.
type Null struct{}

// NewNull creates an empty endgame database.
func NewNull() Null {
	return Null{}
}

// Probe always misses.
func (Null) Probe(g game.Game) (Entry, bool) {
	return Entry{}, false
}
