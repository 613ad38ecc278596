package doe

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"gametree/game"
	"gametree/searcher"
	"gametree/tictactoe"
)

// replayScorer evaluates a moves path by replaying it on a fresh game
// and returning the south-relative heuristic from the mover's side.
func replayScorer(t *testing.T) Scorer {
	return func(moves []int) (int, error) {
		g := tictactoe.NewGame()

		for _, move := range moves {
			if !g.IsLegal(move) {
				return 0, errors.New("illegal move in path")
			}

			g.MakeMove(move)
		}

		if g.HasEnded() {
			return g.Outcome() * g.Turn(), nil
		}

		return g.Score() * g.Turn(), nil
	}
}

func memoryStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func diskStore(t *testing.T, path string) *BadgerStore {
	t.Helper()
	store, err := OpenStore(path)
	require.NoError(t, err)
	return store
}

func TestTrainGrowsTheBook(t *testing.T) {
	store := memoryStore(t)
	trainer := New(store, WithPoolSize(1))
	g := tictactoe.NewGame()

	require.NoError(t, trainer.Train(50, g, replayScorer(t)))

	root, err := store.Read(RootKey)
	require.NoError(t, err)
	require.NotNil(t, root, "Training should persist a root")
	require.True(t, root.Expanded, "The root should expand")
	require.Greater(t, root.Count, int64(1), "Backpropagation should reach the root")

	move, err := trainer.ComputeBestMove(tictactoe.NewGame())
	require.NoError(t, err)
	require.True(t, g.IsLegal(move), "The book should know a root move")
}

func TestTrainLeavesNoVirtualLoss(t *testing.T) {
	store := memoryStore(t)
	trainer := New(store, WithPoolSize(4))
	g := tictactoe.NewGame()

	require.NoError(t, trainer.Train(40, g, replayScorer(t)))

	err := store.Values(func(node *Node) error {
		require.Equal(t, 0, node.Waiting,
			"Node %d should release its virtual loss", node.Key)
		require.True(t, node.Evaluated,
			"Node %d should be evaluated after the pool drains", node.Key)
		return nil
	})
	require.NoError(t, err)
}

func TestTrainRewindsTheGame(t *testing.T) {
	store := memoryStore(t)
	trainer := New(store, WithPoolSize(2))
	g := tictactoe.NewGame()
	hash := g.Hash()

	require.NoError(t, trainer.Train(25, g, replayScorer(t)))
	require.Equal(t, hash, g.Hash(), "The driver should rewind the game")
	require.Equal(t, 0, g.Length())
}

func TestRootBinding(t *testing.T) {
	store := memoryStore(t)
	trainer := New(store, WithPoolSize(1))

	require.NoError(t, trainer.Train(5, tictactoe.NewGame(), replayScorer(t)))

	other := tictactoe.NewGame()
	other.MakeMove(4)

	err := trainer.Train(5, other, replayScorer(t))
	require.ErrorIs(t, err, ErrStateMismatch,
		"A store binds to exactly one root position")
}

func TestTrainingResumesAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	store := diskStore(t, dir)
	trainer := New(store, WithPoolSize(2))
	require.NoError(t, trainer.Train(30, tictactoe.NewGame(), replayScorer(t)))

	first, err := store.Read(RootKey)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store = diskStore(t, dir)
	defer store.Close()

	trainer = New(store, WithPoolSize(2))
	require.NoError(t, trainer.Train(30, tictactoe.NewGame(), replayScorer(t)))

	second, err := store.Read(RootKey)
	require.NoError(t, err)

	require.Equal(t, first.Hash, second.Hash, "The root binding persists")
	require.Greater(t, second.Count, first.Count,
		"Resumed training should keep accumulating visits")

	err = store.Values(func(node *Node) error {
		require.True(t, node.Evaluated, "Node %d should resume evaluated", node.Key)
		return nil
	})
	require.NoError(t, err)
}

func TestScorerFailureAbortsTraining(t *testing.T) {
	store := memoryStore(t)
	trainer := New(store, WithPoolSize(2))

	boom := errors.New("model unavailable")
	scorer := func(moves []int) (int, error) {
		return 0, boom
	}

	err := trainer.Train(50, tictactoe.NewGame(), scorer)
	require.ErrorIs(t, err, boom, "Worker failures surface to the driver")
}

func TestTrainOnForcedWinPrefersWinningMove(t *testing.T) {
	store := memoryStore(t)
	trainer := New(store, WithPoolSize(1))

	// South completes the a1-b2-c3 diagonal at will: the book should
	// converge on a winning continuation.

	setup := []int{0, 1, 4, 2}
	g := tictactoe.NewGame()

	for _, move := range setup {
		g.MakeMove(move)
	}

	require.NoError(t, trainer.Train(200, g, replayScorer(t)))

	probe := tictactoe.NewGame()
	for _, move := range setup {
		probe.MakeMove(move)
	}

	move, err := trainer.ComputeBestMove(probe)
	require.NoError(t, err)
	require.Equal(t, 8, move, "The immediate win should dominate the book")

	score, err := trainer.ComputeBestScore(probe)
	require.NoError(t, err)
	require.Greater(t, score, 0, "The mover should be winning")
}

func TestTrainReportsProgress(t *testing.T) {
	store := memoryStore(t)
	trainer := New(store, WithPoolSize(1))

	reports := make(chan searcher.Report, 64)
	trainer.Attach(reports)

	require.NoError(t, trainer.Train(60, tictactoe.NewGame(), replayScorer(t)))
	require.Greater(t, len(reports), 0, "Training should report progress")
}

func TestConcurrentScorersSpread(t *testing.T) {
	store := memoryStore(t)
	trainer := New(store, WithPoolSize(4))

	var mu sync.Mutex
	paths := make(map[int]int)

	scorer := func(moves []int) (int, error) {
		if len(moves) > 0 {
			mu.Lock()
			paths[moves[0]]++
			mu.Unlock()
		}

		base := replayScorer(t)
		return base(moves)
	}

	require.NoError(t, trainer.Train(30, tictactoe.NewGame(), scorer))

	require.Greater(t, len(paths), 1,
		"Virtual loss should spread evaluations over several branches")
}

func TestComputeBestMoveOnEmptyStore(t *testing.T) {
	store := memoryStore(t)
	trainer := New(store)

	move, err := trainer.ComputeBestMove(tictactoe.NewGame())
	require.NoError(t, err)
	require.Equal(t, game.NullMove, move,
		"An unexpanded book knows no move")
}
