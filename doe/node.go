// Package doe implements the distributed opening-book trainer: a
// multithreaded UCT whose nodes persist to a key/value store and
// whose evaluations run on a bounded worker pool coordinated through
// virtual loss.
package doe

import "gametree/game"

// Node is a serialized search tree node. Links are store keys, with
// zero meaning no reference; the root key is fixed at 1. The moves
// path from the root is carried so external evaluators can replay the
// position without access to the shared game object.
type Node struct {
	Key       uint64  `json:"key"`
	Parent    uint64  `json:"parent,omitempty"`
	Child     uint64  `json:"child,omitempty"`
	Sibling   uint64  `json:"sibling,omitempty"`
	Hash      uint64  `json:"hash"`
	Move      int     `json:"move"`
	Turn      int     `json:"turn"`
	Count     int64   `json:"count"`
	Score     float64 `json:"score"`
	Waiting   int     `json:"waiting"`
	Evaluated bool    `json:"evaluated"`
	Terminal  bool    `json:"terminal"`
	Expanded  bool    `json:"expanded"`
	Moves     []int   `json:"moves,omitempty"`
}

// newNode captures the current position of a game as a node reached
// through the given move.
func newNode(g game.Game, move int, key uint64) *Node {
	return &Node{
		Key:      key,
		Hash:     g.Hash(),
		Move:     move,
		Turn:     g.Turn(),
		Terminal: g.HasEnded(),
		Moves:    g.Moves(),
	}
}

// updateScore folds a propagated score into the running mean.
func (n *Node) updateScore(score float64) {
	n.Count++
	n.Score += (score - n.Score) / float64(n.Count)
}
