package doe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gametree/clock"
	"gametree/game"
	"gametree/searcher"
)

// ErrStateMismatch reports a store whose persisted root does not
// match the supplied game position. Each store holds exactly one
// root, fixed at key 1.
var ErrStateMismatch = errors.New("doe: root state mismatch")

// DefaultBias factors the amount of exploration of the tree.
const DefaultBias = 0.707

// RootKey is the fixed store key of the root node.
const RootKey = 1

// Penalty for each descendant awaiting evaluation.
const waitPenalty = 1

// Evaluations between two training reports.
const reportEvery = 10

// Scorer evaluates a position given its moves path from the root,
// returning a score in engine units. Scorers run concurrently on the
// worker pool and must be reentrant; they never touch the shared game
// object or the store.
type Scorer func(moves []int) (int, error)

// Option configures a trainer.
type Option func(d *DOE)

// WithPoolSize bounds the evaluation worker pool.
func WithPoolSize(size int) Option {
	return func(d *DOE) {
		if size > 0 {
			d.poolSize = size
		}
	}
}

// WithExplorationBias sets the exploration factor.
func WithExplorationBias(factor float64) Option {
	return func(d *DOE) {
		d.exploreFactor = factor
		d.bias = factor * float64(d.maxScore)
	}
}

// DOE is the opening-book trainer: a UCT built over a persistent
// node store and a bounded worker pool. A driver owns the shared game
// object and the tree traversal under a single mutex; workers only
// run scorers and report back under the same mutex, with the waiting
// counters steering concurrent selections apart (virtual loss).
type DOE struct {
	store         Store
	clock         *clock.Controller
	mu            sync.Mutex
	game          game.Game
	root          *Node
	nextKey       uint64
	poolSize      int
	moveTime      time.Duration
	maxDepth      int
	contempt      int
	maxScore      int
	exploreFactor float64
	bias          float64
	consumers     []chan<- searcher.Report
}

var _ searcher.Engine = (*DOE)(nil)

// New creates a trainer over the given node store.
func New(store Store, options ...Option) *DOE {
	d := &DOE{
		store:         store,
		clock:         clock.New(),
		poolSize:      runtime.NumCPU(),
		maxDepth:      searcher.MaxDepth,
		exploreFactor: DefaultBias,
	}

	for _, option := range options {
		option(d)
	}

	return d
}

// SetContempt adjusts the evaluation of drawn positions.
func (d *DOE) SetContempt(score int) {
	d.contempt = score
}

// SetInfinity sets the maximum score a position can obtain.
func (d *DOE) SetInfinity(score int) {
	if score > 0 {
		d.maxScore = score
		d.bias = d.exploreFactor * float64(score)
	}
}

// SetDepth limits the expansion depth in plies.
func (d *DOE) SetDepth(depth int) {
	if depth > 0 && depth <= searcher.MaxDepth {
		d.maxDepth = depth
	}
}

// SetMoveTime bounds the duration of a training run.
func (d *DOE) SetMoveTime(duration time.Duration) {
	if duration > 0 {
		d.moveTime = duration
	}
}

// NewMatch cancels any pending countdown. The stored book survives
// across matches.
func (d *DOE) NewMatch() {
	d.clock.CancelCountDown()
}

// GetPonderMove is not supported by the trainer.
func (d *DOE) GetPonderMove(g game.Game) int {
	return game.NullMove
}

// AbortComputation stops the training loop after the given delay.
// In-flight evaluations still run to completion and their results are
// applied.
func (d *DOE) AbortComputation(delay time.Duration) {
	d.clock.AbortComputation(delay)
}

// Attach subscribes a channel to training reports.
func (d *DOE) Attach(consumer chan<- searcher.Report) {
	d.consumers = append(d.consumers, consumer)
}

// ComputeBestMove returns the best stored move for the current
// position of the game, or NullMove when the book has nothing.
func (d *DOE) ComputeBestMove(g game.Game) (int, error) {
	if g.HasEnded() {
		return game.NullMove, nil
	}

	root, err := d.rootNode(g)

	if err != nil {
		return game.NullMove, err
	}

	if root.Expanded {
		child, err := d.pickBestChild(root)

		if err != nil {
			return game.NullMove, err
		}

		return child.Move, nil
	}

	return game.NullMove, nil
}

// ComputeBestScore returns the score of the best stored move from
// the point of view of the player to move.
func (d *DOE) ComputeBestScore(g game.Game) (int, error) {
	root, err := d.rootNode(g)

	if err != nil {
		return 0, err
	}

	if root.Expanded {
		child, err := d.pickBestChild(root)

		if err != nil {
			return 0, err
		}

		return int(-child.Score), nil
	}

	return 0, nil
}

// Train expands the stored tree for the current position of the game.
// Each driver pass selects nodes under the mutex, charges the waiting
// chain of the unevaluated ones and hands them to the worker pool;
// workers backpropagate their scores under the same mutex. The run
// ends after size expansions, on abort, or on the first scorer or
// store failure; nodes still unevaluated at that point stay on disk
// and are resumed by the next run.
func (d *DOE) Train(size int, g game.Game, scorer Scorer) error {
	d.game = g

	if d.moveTime > 0 {
		d.clock.ScheduleCountDown(d.moveTime)
	} else {
		d.clock.CancelCountDown()
	}

	if d.maxScore == 0 {
		d.SetInfinity(g.Infinity())
	}

	if err := g.EnsureCapacity(searcher.MaxDepth + g.Length()); err != nil {
		return err
	}

	root, err := d.rootNode(g)

	if err != nil {
		return err
	}

	d.root = root

	pool, ctx := errgroup.WithContext(context.Background())
	pool.SetLimit(d.poolSize)

	// There may be unevaluated nodes if a previous run was shut down
	// before all its tasks completed. Enqueue them now.

	counter := 0
	var pending []*Node

	err = d.store.Values(func(node *Node) error {
		if !node.Evaluated {
			pending = append(pending, node)
		}

		return nil
	})

	if err != nil {
		return err
	}

	if len(pending) > 0 {
		log.Info().Msgf("resuming %d pending evaluations", len(pending))
	}

	for _, node := range pending {
		node := node
		pool.Go(func() error { return d.evaluate(node, scorer) })
		counter++
	}

	// Expand the tree and enqueue the selected nodes for their
	// asynchronous evaluation.

	expanded := false

	for i := 0; i < size && !d.aborted() && ctx.Err() == nil; i++ {
		d.mu.Lock()
		nodes, err := d.selectNodes()

		if err != nil {
			d.mu.Unlock()
			return errors.Join(err, pool.Wait())
		}

		var submit []*Node

		for _, node := range nodes {
			if node.Evaluated {
				err = d.backpropagate(node, node.Score)
			} else {
				err = d.updateWaitCount(node, waitPenalty)
				submit = append(submit, node)
			}

			if err != nil {
				d.mu.Unlock()
				return errors.Join(err, pool.Wait())
			}
		}

		expanded = d.root.Expanded
		d.mu.Unlock()

		for _, node := range submit {
			if d.aborted() {
				break
			}

			node := node
			pool.Go(func() error { return d.evaluate(node, scorer) })
			counter++
		}

		if expanded && counter >= reportEvery {
			d.invokeConsumers()
			counter = 0
		}
	}

	return pool.Wait()
}

// evaluate runs on the worker pool: it scores a node's moves path and
// applies the result to the tree under the driver mutex.
func (d *DOE) evaluate(node *Node, scorer Scorer) error {
	score, err := scorer(node.Moves)

	if err != nil {
		return fmt.Errorf("doe: score node %d: %w", node.Key, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	fresh, err := d.store.Read(node.Key)

	if err != nil {
		return err
	}

	if fresh == nil || fresh.Evaluated {
		return nil
	}

	fresh.Evaluated = true

	if err := d.updateWaitCount(fresh, -waitPenalty); err != nil {
		return err
	}

	return d.backpropagate(fresh, float64(score))
}

// rootNode reads the root of the store, creating it for the current
// position when the store is fresh. The persisted root must match the
// supplied game.
func (d *DOE) rootNode(g game.Game) (*Node, error) {
	root, err := d.store.Read(RootKey)

	if err != nil {
		return nil, err
	}

	if root == nil {
		root = newNode(g, game.NullMove, RootKey)
		root.Evaluated = true
		root.updateScore(0)

		if err := d.store.Write(root); err != nil {
			return nil, err
		}
	}

	if root.Hash != g.Hash() {
		return nil, fmt.Errorf("%w: stored %d, game %d",
			ErrStateMismatch, root.Hash, g.Hash())
	}

	if d.nextKey < RootKey {
		d.nextKey = RootKey
	}

	err = d.store.Values(func(node *Node) error {
		if node.Key > d.nextKey {
			d.nextKey = node.Key
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return root, nil
}

// selectNodes refreshes the root from the store and expands the tree
// one step. Holding a fresh root keeps the selection factor in sync
// with the backpropagated visit counts.
func (d *DOE) selectNodes() ([]*Node, error) {
	root, err := d.store.Read(RootKey)

	if err != nil {
		return nil, err
	}

	d.root = root

	return d.expand(root, d.maxDepth)
}

// expand selects the nodes to evaluate next: either the children of
// the first unexpanded node on the priority path, or the single
// terminal or depth-limited node the path ends at.
func (d *DOE) expand(node *Node, depth int) ([]*Node, error) {
	if node.Terminal || depth == 0 {
		return []*Node{node}, nil
	}

	if node.Expanded {
		child, err := d.pickLeadChild(node)

		if err != nil {
			return nil, err
		}

		d.game.MakeMove(child.Move)
		selected, err := d.expand(child, depth-1)
		d.game.UnmakeMove()

		return selected, err
	}

	return d.appendChildren(node)
}

// appendChildren creates one child per legal move of the current
// position of the shared game.
func (d *DOE) appendChildren(node *Node) ([]*Node, error) {
	moves := d.game.LegalMoves()
	children := make([]*Node, len(moves))

	for i, move := range moves {
		d.game.MakeMove(move)
		child, err := d.appendChild(node, move)
		d.game.UnmakeMove()

		if err != nil {
			return nil, err
		}

		children[i] = child
	}

	node.Expanded = true

	if err := d.store.Write(node); err != nil {
		return nil, err
	}

	return children, nil
}

// appendChild persists a new child node for the current position of
// the shared game. Terminal children are evaluated on the spot.
func (d *DOE) appendChild(parent *Node, move int) (*Node, error) {
	d.nextKey++
	node := newNode(d.game, move, d.nextKey)

	if node.Terminal {
		node.Evaluated = true
		node.updateScore(float64(d.outcome()))
	}

	node.Parent = parent.Key
	node.Sibling = parent.Child

	if err := d.store.Write(node); err != nil {
		return nil, err
	}

	parent.Child = node.Key

	if err := d.store.Write(parent); err != nil {
		return nil, err
	}

	return node, nil
}

// outcome scores the current terminal position of the shared game
// from the point of view of its mover, applying contempt to draws.
func (d *DOE) outcome() int {
	score := d.game.Outcome()

	if score == game.DrawScore {
		score = d.contempt
	}

	return score * d.game.Turn()
}

// computePriority is the virtual-loss adjusted UCB1 priority: each
// waiting descendant counts as a pessimistic sample folded into the
// running mean, deterring concurrent workers from piling onto the
// same branch.
func (d *DOE) computePriority(child *Node, factor float64) float64 {
	count := child.Count
	score := child.Score

	for i := 0; i < child.Waiting; i++ {
		value := float64(-d.maxScore * child.Turn)
		count++
		score += (value - score) / float64(count)
	}

	explore := math.Sqrt(factor / float64(count))

	return score - explore*d.bias
}

func (d *DOE) selectionScore(node *Node) float64 {
	bound := float64(d.maxScore) / math.Sqrt(float64(node.Count))
	return node.Score + bound
}

// pickLeadChild returns the child with the best expansion priority.
func (d *DOE) pickLeadChild(parent *Node) (*Node, error) {
	best, err := d.store.Read(parent.Child)

	if err != nil {
		return nil, err
	}

	factor := math.Log(float64(parent.Count))
	bestScore := d.computePriority(best, factor)

	for child := best; ; {
		child, err = d.store.Read(child.Sibling)

		if err != nil {
			return nil, err
		}

		if child == nil {
			break
		}

		if score := d.computePriority(child, factor); score < bestScore {
			bestScore = score
			best = child
		}
	}

	return best, nil
}

// pickBestChild returns the child with the minimum secure score.
func (d *DOE) pickBestChild(parent *Node) (*Node, error) {
	best, err := d.store.Read(parent.Child)

	if err != nil {
		return nil, err
	}

	bestScore := d.selectionScore(best)

	for child := best; ; {
		child, err = d.store.Read(child.Sibling)

		if err != nil {
			return nil, err
		}

		if child == nil {
			break
		}

		if score := d.selectionScore(child); score < bestScore {
			bestScore = score
			best = child
		}
	}

	return best, nil
}

// backpropagate folds a score into a node and walks its parent chain,
// negating the propagated running mean at each level. The chain ends
// at the first key that does not resolve.
func (d *DOE) backpropagate(node *Node, score float64) error {
	node.updateScore(score)

	if err := d.store.Write(node); err != nil {
		return err
	}

	for {
		parent, err := d.store.Read(node.Parent)

		if err != nil {
			return err
		}

		if parent == nil {
			return nil
		}

		parent.updateScore(-node.Score)

		if err := d.store.Write(parent); err != nil {
			return err
		}

		node = parent
	}
}

// updateWaitCount charges or releases the virtual loss of a node and
// all its ancestors.
func (d *DOE) updateWaitCount(node *Node, value int) error {
	node.Waiting += value

	if err := d.store.Write(node); err != nil {
		return err
	}

	for {
		parent, err := d.store.Read(node.Parent)

		if err != nil {
			return err
		}

		if parent == nil {
			return nil
		}

		parent.Waiting += value

		if err := d.store.Write(parent); err != nil {
			return err
		}

		node = parent
	}
}

// invokeConsumers reports the best stored move so far.
func (d *DOE) invokeConsumers() {
	d.mu.Lock()

	root, err := d.store.Read(RootKey)

	if err != nil || root == nil || !root.Expanded {
		d.mu.Unlock()
		return
	}

	child, err := d.pickBestChild(root)
	d.mu.Unlock()

	if err != nil || child == nil {
		return
	}

	report := searcher.Report{
		Move:  child.Move,
		Score: int(-child.Score),
		Depth: d.maxDepth,
		Nodes: root.Count,
	}

	for _, consumer := range d.consumers {
		select {
		case consumer <- report:
		default:
		}
	}
}

func (d *DOE) aborted() bool {
	return d.clock.Aborted()
}
