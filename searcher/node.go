package searcher

import "gametree/game"

// None is the index sentinel of the node arena.
const None = int32(-1)

// node is a position of the Monte-Carlo search tree. Nodes live in an
// arena and reference each other by index: each node owns a singly
// linked list of children through child/sibling, while parent is a
// lookup relation and never an ownership edge. Scores are running
// means from the point of view of the player to move at the node.
type node struct {
	parent  int32
	child   int32
	sibling int32
	hash    uint64
	move    int32
	turn    int8
	flags   uint8
	cursor  int32
	start   int32
	count   int64
	score   float64
	bias    float64
}

const (
	flagTerminal = 1 << iota
	flagExpanded
	flagProven
)

func (n *node) terminal() bool { return n.flags&flagTerminal != 0 }
func (n *node) expanded() bool { return n.flags&flagExpanded != 0 }
func (n *node) proven() bool   { return n.flags&flagProven != 0 }

// tree is the node arena. Detached subtrees return to a free list so
// the total live-node count stays under the engine's ceiling.
type tree struct {
	nodes []node
	free  []int32
}

func newTree(capacity int) *tree {
	return &tree{nodes: make([]node, 0, capacity)}
}

func (t *tree) at(index int32) *node {
	return &t.nodes[index]
}

// live returns the number of reachable nodes in the arena.
func (t *tree) live() int {
	return len(t.nodes) - len(t.free)
}

// create allocates a node for the current position of the game,
// reached through the given move. The fresh move generation cursor of
// the position is captured so expansion can resume it later.
func (t *tree) create(g game.Game, move int) int32 {
	cursor := int32(g.GetCursor())

	n := node{
		parent:  None,
		child:   None,
		sibling: None,
		hash:    g.Hash(),
		move:    int32(move),
		turn:    int8(g.Turn()),
		cursor:  cursor,
		start:   cursor,
	}

	if g.HasEnded() {
		n.flags |= flagTerminal | flagExpanded
	}

	if len(t.free) > 0 {
		index := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.nodes[index] = n
		return index
	}

	t.nodes = append(t.nodes, n)

	return int32(len(t.nodes) - 1)
}

// pushChild prepends a child to a parent's list.
func (t *tree) pushChild(parent, child int32) {
	t.at(child).sibling = t.at(parent).child
	t.at(child).parent = parent
	t.at(parent).child = child
}

// nextMove resumes the progressive move generation of a node. Once
// the generator is exhausted the node is flagged as expanded and
// NullMove keeps being returned. The game's own cursor is left as it
// was found.
func (t *tree) nextMove(index int32, g game.Game) int {
	n := t.at(index)

	if n.expanded() {
		return game.NullMove
	}

	saved := g.GetCursor()
	g.SetCursor(int(n.cursor))
	move := g.NextMove()
	n.cursor = int32(g.GetCursor())
	g.SetCursor(saved)

	if move == game.NullMove {
		n.flags |= flagExpanded
	}

	return move
}

// initScore sets the first evaluation of a node.
func (t *tree) initScore(index int32, score float64) {
	n := t.at(index)
	n.score = score
	n.count = 1
}

// updateScore folds a propagated score into the running mean. Proven
// nodes keep their settled score.
func (t *tree) updateScore(index int32, score float64) {
	n := t.at(index)
	n.count++

	if !n.proven() {
		n.score += (score - n.score) / float64(n.count)
	}
}

// settleScore fixes the exact score of a node: the value is proven
// and no longer moved by new visits.
func (t *tree) settleScore(index int32, score float64) {
	n := t.at(index)
	n.count++
	n.score = score
	n.flags |= flagProven
}

// proveScore settles a node once every one of its children is proven;
// otherwise the score is folded into the running mean.
func (t *tree) proveScore(index int32, score float64) {
	for child := t.at(index).child; child != None; child = t.at(child).sibling {
		if !t.at(child).proven() {
			t.updateScore(index, score)
			return
		}
	}

	t.settleScore(index, score)
}

// detachChildren releases the subtrees of all the children of a node
// back to the free list and rewinds its move generation, so the node
// can expand again later.
func (t *tree) detachChildren(index int32) {
	n := t.at(index)

	for child := n.child; child != None; {
		next := t.at(child).sibling
		t.recycle(child, None)
		child = next
	}

	n = t.at(index)
	n.child = None
	n.cursor = n.start
	n.flags &^= flagExpanded
}

// recycle releases a node and all its descendants, skipping the
// subtree rooted at keep.
func (t *tree) recycle(index, keep int32) {
	if index == None || index == keep {
		return
	}

	for child := t.at(index).child; child != None; {
		next := t.at(child).sibling
		t.recycle(child, keep)
		child = next
	}

	t.free = append(t.free, index)
}

// findNode looks up a node by position hash within the given depth of
// the subtree rooted at index.
func (t *tree) findNode(index int32, hash uint64, depth int) int32 {
	if t.at(index).hash == hash {
		return index
	}

	if depth > 0 {
		for child := t.at(index).child; child != None; child = t.at(child).sibling {
			if match := t.findNode(child, hash, depth-1); match != None {
				return match
			}
		}
	}

	return None
}
