package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"gametree/game"
)

type snapshot struct {
	hash    uint64
	cursor  int
	length  int
	turn    int
	score   int
	outcome int
	moves   []int
}

func capture(t *TicTacToe) snapshot {
	return snapshot{
		hash:    t.Hash(),
		cursor:  t.GetCursor(),
		length:  t.Length(),
		turn:    t.Turn(),
		score:   t.Score(),
		outcome: t.Outcome(),
		moves:   t.LegalMoves(),
	}
}

func TestMakeUnmakeRestoresState(t *testing.T) {
	rng := rand.New(rand.NewSource(31))

	for trial := 0; trial < 100; trial++ {
		g := NewGame()
		var stack []snapshot

		// Perturb the cursor so unmake restores a non-trivial one
		// and play a random match.

		for !g.HasEnded() {
			for i := 0; i < rng.Intn(3); i++ {
				g.NextMove()
			}

			stack = append(stack, capture(g))
			moves := g.LegalMoves()
			g.MakeMove(moves[rng.Intn(len(moves))])
		}

		for i := len(stack) - 1; i >= 0; i-- {
			g.UnmakeMove()
			got := capture(g)

			require.Equal(t, stack[i].hash, got.hash,
				"Unmake should restore the position hash")
			require.Equal(t, stack[i].cursor, got.cursor,
				"Unmake should restore the move cursor")
			require.Equal(t, stack[i].length, got.length,
				"Unmake should restore the move count")
			require.Equal(t, stack[i].turn, got.turn,
				"Unmake should restore the turn")
			require.Equal(t, stack[i].score, got.score,
				"Unmake should restore the heuristic score")
			require.Equal(t, stack[i].outcome, got.outcome,
				"Unmake should restore the outcome")
			require.Equal(t, stack[i].moves, got.moves,
				"Unmake should restore the legal moves")
		}
	}
}

func TestTurnFlipsOnEachMove(t *testing.T) {
	g := NewGame()
	require.Equal(t, game.South, g.Turn(), "South moves first")

	g.MakeMove(4)
	require.Equal(t, game.North, g.Turn(), "Turn should flip on make")

	g.UnmakeMove()
	require.Equal(t, game.South, g.Turn(), "Turn should flip on unmake")
}

func TestUnmakeEmptyHistoryPanics(t *testing.T) {
	g := NewGame()

	require.PanicsWithValue(t, game.ErrInvalidOperation, func() {
		g.UnmakeMove()
	}, "Unmake on an empty history should panic")
}

func TestNextMoveSticksAtNullMove(t *testing.T) {
	g := NewGame()
	count := 0

	for g.NextMove() != game.NullMove {
		count++
	}

	require.Equal(t, Cells, count, "Should iterate every empty cell")

	for i := 0; i < 3; i++ {
		require.Equal(t, game.NullMove, g.NextMove(),
			"Exhausted generator should keep returning NullMove")
	}

	g.MakeMove(4)
	g.UnmakeMove()

	require.Equal(t, game.NullMove, g.NextMove(),
		"Unmake should restore the exhausted cursor")
}

func TestLegalMovesDoesNotPerturbCursor(t *testing.T) {
	g := NewGame()

	first := g.NextMove()
	cursor := g.GetCursor()
	g.LegalMoves()

	require.Equal(t, cursor, g.GetCursor(),
		"LegalMoves should not move the cursor")
	require.Equal(t, 4, first, "Center should be generated first")
}

func TestCursorSaveRestore(t *testing.T) {
	g := NewGame()

	g.NextMove()
	g.NextMove()
	cursor := g.GetCursor()
	expected := g.NextMove()

	g.SetCursor(cursor)
	require.Equal(t, expected, g.NextMove(),
		"SetCursor should rewind the iteration")
}

func TestHashStabilityAcrossPermutations(t *testing.T) {
	first := NewGame()
	second := NewGame()

	// Two move orders that reach the same board with the same turn.

	for _, move := range []int{0, 4, 8, 2} {
		first.MakeMove(move)
	}

	for _, move := range []int{8, 2, 0, 4} {
		second.MakeMove(move)
	}

	require.Equal(t,
		first.ToBoard().ToDiagram(), second.ToBoard().ToDiagram(),
		"Both orders should reach the same board")
	require.Equal(t, first.Hash(), second.Hash(),
		"Equal boards should hash equally")
}

func TestOutcomeValues(t *testing.T) {
	t.Run("south win", func(t *testing.T) {
		g := NewGame()

		for _, move := range []int{0, 3, 1, 4, 2} {
			g.MakeMove(move)
		}

		require.True(t, g.HasEnded(), "Completed line should end the game")
		require.Equal(t, game.South, g.Winner(), "South should win")
		require.Equal(t, MaxScore, g.Outcome(), "Outcome should be the maximum score")
	})

	t.Run("north win", func(t *testing.T) {
		g := NewGame()

		for _, move := range []int{0, 3, 1, 4, 8, 5} {
			g.MakeMove(move)
		}

		require.Equal(t, game.North, g.Winner(), "North should win")
		require.Equal(t, -MaxScore, g.Outcome(), "Outcome should be the minimum score")
	})

	t.Run("draw", func(t *testing.T) {
		g := NewGame()

		for _, move := range []int{4, 0, 8, 2, 1, 7, 3, 5, 6} {
			g.MakeMove(move)
		}

		require.True(t, g.HasEnded(), "Full board should end the game")
		require.Equal(t, game.Draw, g.Winner(), "Nobody should win")
		require.Equal(t, game.DrawScore, g.Outcome(), "Outcome should be the draw score")
	})
}

func TestScoreStaysInsideBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		g := NewGame()

		for !g.HasEnded() {
			score := g.Score()
			require.Less(t, score, MaxScore, "Heuristic should stay below a win")
			require.Greater(t, score, -MaxScore, "Heuristic should stay above a loss")

			moves := g.LegalMoves()
			g.MakeMove(moves[rng.Intn(len(moves))])
		}
	}
}

func TestEnsureCapacity(t *testing.T) {
	g := NewGame()

	require.NoError(t, g.EnsureCapacity(300),
		"Engine-sized requests should be admitted")
	require.NoError(t, g.EnsureCapacity(300),
		"EnsureCapacity should be idempotent")

	err := g.EnsureCapacity(MaxCapacity + 1)
	require.ErrorIs(t, err, game.ErrCapacityExceeded,
		"Requests above the absolute maximum should fail")
}

func TestSetBoardRestoresPosition(t *testing.T) {
	g := NewGame()
	g.MakeMove(4)
	g.MakeMove(0)

	board := g.ToBoard()
	fresh := NewGame()
	require.NoError(t, fresh.SetBoard(board))

	require.Equal(t, g.Hash(), fresh.Hash(),
		"A game reset from a board should hash like the original")
	require.Equal(t, g.LegalMoves(), fresh.LegalMoves(),
		"A game reset from a board should offer the same moves")
	require.Equal(t, 0, fresh.Length(), "SetBoard should reset the history")
}

func TestIsLegal(t *testing.T) {
	g := NewGame()
	g.MakeMove(4)

	require.False(t, g.IsLegal(4), "Occupied cells are not playable")
	require.True(t, g.IsLegal(0), "Empty cells are playable")
	require.False(t, g.IsLegal(-1), "Out of range moves are not playable")
	require.False(t, g.IsLegal(9), "Out of range moves are not playable")
}
