package searcher

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"gametree/game"
	"gametree/leaves"
)

const (
	// DefaultBias factors the amount of exploration of the tree.
	DefaultBias = 0.353

	// DefaultMaxNodes bounds the live nodes of the search tree.
	DefaultMaxNodes = 1 << 20

	// Minimum elapsed time between reports.
	reportInterval = 450 * time.Millisecond

	// Number of pruning iterations to run at once.
	pruneIterations = 20

	// Score change that qualifies a new report on its own.
	reportThreshold = 5.0
)

// Option configures a Monte-Carlo engine.
type Option func(e *UCT)

// WithExplorationBias sets the exploration factor. A lower factor
// favours exploitation of the best-scored branches.
func WithExplorationBias(factor float64) Option {
	return func(e *UCT) {
		e.SetExplorationBias(factor)
	}
}

// WithMaxNodes bounds the number of live tree nodes. When the ceiling
// is reached the engine detaches the children of the worst expanded
// descendants until the tree fits again.
func WithMaxNodes(limit int) Option {
	return func(e *UCT) {
		if limit > 0 {
			e.maxNodes = limit
		}
	}
}

// WithSeed fixes the playout random source, making searches that rely
// on random simulations reproducible.
func WithSeed(seed uint64) Option {
	return func(e *UCT) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// UCT is a best-first Monte-Carlo engine: it grows a tree guided by
// UCB1 selection, evaluates the appended leaves with the game
// heuristic, and propagates exact scores up to the root so proven
// branches stop being explored. The PUCT, Montecarlo and Partner
// variants reconfigure its selection and simulation hooks.
type UCT struct {
	base
	leaves        leaves.Leaves
	tree          *tree
	root          int32
	bestChild     int32
	exploreFactor float64
	bias          float64
	maxNodes      int
	rng           *rand.Rand

	// Variant hooks. simulate scores a non-terminal leaf position,
	// nodeScore orients a node score for selection, and factorOf
	// with priority drive the selection policy.
	simulate  func(g game.Game, maxDepth int) int
	nodeScore func(n *node) float64
	factorOf  func(count int64) float64
	priority  func(n *node, factor float64) float64
	evaluated func(index int32, score float64)
}

var _ Engine = (*UCT)(nil)
var _ HasLeaves = (*UCT)(nil)

// NewUCT creates an engine that evaluates leaves with the game's
// heuristic score.
func NewUCT(options ...Option) *UCT {
	e := &UCT{
		base:          newBase(),
		leaves:        leaves.NewNull(),
		tree:          newTree(0),
		root:          None,
		bestChild:     None,
		exploreFactor: DefaultBias,
		maxNodes:      DefaultMaxNodes,
		rng:           rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}

	e.simulate = e.simulateHeuristic
	e.nodeScore = func(n *node) float64 { return n.score }
	e.factorOf = func(count int64) float64 { return math.Log(float64(count)) }
	e.priority = e.uctPriority

	for _, option := range options {
		option(e)
	}

	return e
}

// SetLeaves replaces the endgame database.
func (e *UCT) SetLeaves(l leaves.Leaves) {
	if l != nil {
		e.leaves = l
	}
}

// SetInfinity sets the maximum score a position can obtain and
// rescales the exploration priority multiplier.
func (e *UCT) SetInfinity(score int) {
	e.base.SetInfinity(score)
	e.bias = e.exploreFactor * float64(e.maxScore)
}

// SetExplorationBias adjusts the preference for exploring suboptimal
// moves.
func (e *UCT) SetExplorationBias(factor float64) {
	e.exploreFactor = factor
	e.bias = factor * float64(e.maxScore)
}

// NewMatch discards the search tree of previous computations.
func (e *UCT) NewMatch() {
	e.clock.CancelCountDown()
	e.tree = newTree(0)
	e.root = None
	e.bestChild = None
}

// GetPonderMove returns the expected reply for the current position
// if its node is on the tree and already explored.
func (e *UCT) GetPonderMove(g game.Game) int {
	if e.root == None {
		return game.NullMove
	}

	index := e.tree.findNode(e.root, g.Hash(), 1)

	if index == None {
		return game.NullMove
	}

	n := e.tree.at(index)

	if !n.expanded() || n.terminal() || n.child == None {
		return game.NullMove
	}

	return int(e.tree.at(e.pickBestChild(index)).move)
}

// ComputeBestScore returns the score of the best move from the point
// of view of the player to move.
func (e *UCT) ComputeBestScore(g game.Game) (int, error) {
	if g.HasEnded() {
		return g.Outcome() * g.Turn(), nil
	}

	if _, err := e.ComputeBestMove(g); err != nil {
		return 0, err
	}

	return int(-e.tree.at(e.bestChild).score), nil
}

// ComputeBestMove grows the search tree for the current position of
// the game until the countdown expires or the root value is proven,
// then returns the secure best child's move.
func (e *UCT) ComputeBestMove(g game.Game) (int, error) {
	if g.HasEnded() {
		return game.NullMove, nil
	}

	e.turn = g.Turn()

	if e.maxScore == 0 {
		e.SetInfinity(g.Infinity())
	}

	e.clock.ScheduleCountDown(e.moveTime)
	defer e.clock.CancelCountDown()

	if err := g.EnsureCapacity(MaxDepth + g.Length()); err != nil {
		return game.NullMove, err
	}

	e.root = e.rootNode(g)
	e.bestChild = None

	bestScore := float64(game.DrawScore)
	watch := time.Now()

	for !e.aborted() || e.tree.at(e.root).child == None {
		e.expand(e.root, g, e.maxDepth)
		e.pruneGarbage()

		if e.tree.at(e.root).proven() {
			break
		}

		// Report search information periodically.

		if time.Since(watch) >= reportInterval {
			watch = time.Now()
			child := e.pickBestChild(e.root)
			change := math.Abs(e.tree.at(child).score - bestScore)

			if child != e.bestChild || change > reportThreshold {
				e.bestChild = child
				bestScore = e.tree.at(child).score
				e.report(g)
			}
		}
	}

	e.bestChild = e.pickBestChild(e.root)
	e.report(g)

	return int(e.tree.at(e.bestChild).move), nil
}

// rootNode obtains a tree node for the given game position, reusing a
// matching descendant of the previous root when one exists within two
// plies. The match and its parent level are kept; the rest of the
// former tree is recycled.
func (e *UCT) rootNode(g game.Game) int32 {
	hash := g.Hash()

	if e.root != None {
		anchor := e.root

		if parent := e.tree.at(e.root).parent; parent != None {
			anchor = parent
		}

		if match := e.tree.findNode(anchor, hash, 2); match != None {
			// Keep one level above the new root so a later search
			// can still reach its siblings; everything beyond that
			// returns to the free list.

			keep := match

			if parent := e.tree.at(match).parent; parent != None {
				keep = parent
			}

			if keep != anchor {
				e.tree.recycle(anchor, keep)
			}

			top := e.tree.at(keep)
			top.parent = None
			top.sibling = None

			return match
		}

		log.Debug().Msgf("no node within reach of hash %d: tree reset", hash)
		e.tree.recycle(anchor, None)
	}

	root := e.tree.create(g, game.NullMove)
	e.tree.initScore(root, 0)

	return root
}

// expand descends to the most prioritary node, appends one child to
// it and backpropagates the evaluation. Each unwind level folds the
// negation of the returned score into its node.
func (e *UCT) expand(index int32, g game.Game, depth int) float64 {
	if n := e.tree.at(index); n.terminal() || depth == 0 {
		score := n.score
		n.count++
		return score
	}

	var child int32
	var score float64

	if move := e.tree.nextMove(index, g); move != game.NullMove {
		g.MakeMove(move)
		child = e.tree.create(g, move)
		e.tree.pushChild(index, child)
		score = -e.evaluate(child, g, depth-1)
		g.UnmakeMove()
	} else {
		child = e.pickLeadChild(index)
		g.MakeMove(int(e.tree.at(child).move))
		score = -e.expand(child, g, depth-1)
		g.UnmakeMove()
	}

	switch {
	case !e.tree.at(child).proven():
		e.tree.updateScore(index, score)
	case score == float64(e.maxScore):
		e.tree.settleScore(index, score)
	case score == -float64(e.maxScore) && e.tree.at(index).expanded():
		e.tree.proveScore(index, score)
	default:
		e.tree.updateScore(index, score)
	}

	return score
}

// evaluate scores a freshly appended leaf from the point of view of
// its own mover and marks exact wins and losses as proven.
func (e *UCT) evaluate(index int32, g game.Game, depth int) float64 {
	score := float64(e.score(index, g, depth))
	e.tree.initScore(index, score)

	n := e.tree.at(index)

	if n.terminal() && math.Abs(score) == float64(e.maxScore) {
		n.flags |= flagProven
	}

	if e.evaluated != nil {
		e.evaluated(index, score)
	}

	return score
}

// score resolves the game value of a node: exact outcome for terminal
// positions, the endgame database when it knows the position, and the
// simulation hook otherwise. True draws are replaced by the engine's
// contempt before orienting the value to the mover.
func (e *UCT) score(index int32, g game.Game, depth int) int {
	var score int

	if e.tree.at(index).terminal() {
		score = g.Outcome()
	} else if entry, ok := e.leaves.Probe(g); ok {
		score = entry.Score
	} else {
		score = e.simulate(g, depth)
	}

	if score == game.DrawScore {
		score = e.contempt * e.turn
	}

	return score * g.Turn()
}

// simulateHeuristic is the plain UCT evaluation: the game's heuristic
// score of the position.
func (e *UCT) simulateHeuristic(g game.Game, maxDepth int) int {
	return g.Score()
}

// uctPriority is the UCB1 expansion priority of an edge, minimized
// because child scores are stored from the child owner's viewpoint.
func (e *UCT) uctPriority(n *node, factor float64) float64 {
	explore := math.Sqrt(factor / float64(n.count))
	return e.nodeScore(n) - explore*e.bias
}

// pickLeadChild returns the child with the best expansion priority.
func (e *UCT) pickLeadChild(parent int32) int32 {
	factor := e.factorOf(e.tree.at(parent).count)
	best := e.tree.at(parent).child
	bestScore := e.priority(e.tree.at(best), factor)

	for child := e.tree.at(best).sibling; child != None; child = e.tree.at(child).sibling {
		if score := e.priority(e.tree.at(child), factor); score < bestScore {
			bestScore = score
			best = child
		}
	}

	return best
}

// selectionScore is the secure score of a node: its mean plus a
// confidence bound that shrinks with the visit count.
func (e *UCT) selectionScore(n *node) float64 {
	bound := float64(e.maxScore) / math.Sqrt(float64(n.count))
	return e.nodeScore(n) + bound
}

// pickBestChild returns the child with the minimum secure score: the
// demonstrably best reply given the simulations so far.
func (e *UCT) pickBestChild(parent int32) int32 {
	best := e.tree.at(parent).child
	bestScore := e.selectionScore(e.tree.at(best))

	for child := e.tree.at(best).sibling; child != None; child = e.tree.at(child).sibling {
		if score := e.selectionScore(e.tree.at(child)); score < bestScore {
			bestScore = score
			best = child
		}
	}

	return best
}

// pickFutileChild returns the expanded child with the worst score. The
// first child is the starting candidate even when it is not expanded,
// and it is returned when no later expanded child scores worse.
func (e *UCT) pickFutileChild(parent int32) int32 {
	futile := e.tree.at(parent).child

	for child := e.tree.at(futile).sibling; child != None; child = e.tree.at(child).sibling {
		if e.tree.at(child).score > e.tree.at(futile).score {
			if e.tree.at(child).expanded() {
				futile = child
			}
		}
	}

	return futile
}

// pruneGarbage bounds the live tree: while the node ceiling is
// exceeded, the children of the worst expanded descendants return to
// the free list. The root and its subtree entry are always exempt.
func (e *UCT) pruneGarbage() {
	if e.tree.live() < e.maxNodes {
		return
	}

	for i := 0; i < pruneIterations; i++ {
		e.pruneChildren(e.root, e.root)

		if parent := e.tree.at(e.root).parent; parent != None {
			e.pruneChildren(parent, e.root)
		}
	}
}

// pruneChildren detaches one or more leaf groups from each subtree of
// a parent node, following the worst-score expanded chain downwards.
func (e *UCT) pruneChildren(parent, ignore int32) {
	for index := e.tree.at(parent).child; index != None; index = e.tree.at(index).sibling {
		if !e.tree.at(index).expanded() || index == ignore {
			continue
		}

		futile := index

		for e.tree.at(futile).expanded() && e.tree.at(futile).child != None {
			futile = e.pickFutileChild(futile)
		}

		if target := e.tree.at(futile).parent; target != ignore && target != parent && target != None {
			e.tree.detachChildren(target)
		}
	}
}

// report emits the current best child and the secure principal
// variation.
func (e *UCT) report(g game.Game) {
	if e.bestChild == None {
		return
	}

	n := e.tree.at(e.bestChild)

	e.emit(Report{
		Move:  int(n.move),
		Score: int(-n.score),
		Depth: e.maxDepth,
		Nodes: int64(e.tree.live()),
		PV:    e.principalVariation(),
	})
}

// principalVariation walks the secure best children from the root.
func (e *UCT) principalVariation() []int {
	var pv []int

	for index := e.root; ; {
		n := e.tree.at(index)

		if n.child == None || n.terminal() {
			break
		}

		index = e.pickBestChild(index)
		pv = append(pv, int(e.tree.at(index).move))
	}

	return pv
}
