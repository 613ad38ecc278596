package searcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gametree/game"
	"gametree/tictactoe"
)

// requireWinningBranch checks that a move keeps a proven win: the
// opponent's best score after it is a forced loss.
func requireWinningBranch(t *testing.T, g game.Game, move int) {
	t.Helper()
	require.True(t, g.IsLegal(move))

	g.MakeMove(move)
	defer g.UnmakeMove()

	if g.HasEnded() {
		require.Equal(t, -g.Turn(), g.Winner(),
			"Move %d should win on the spot", move)
		return
	}

	verifier := NewNegamax()
	verifier.SetDepth(9)
	score, err := verifier.ComputeBestScore(g)
	require.NoError(t, err)
	require.Equal(t, -g.Infinity(), score,
		"The opponent should be lost after move %d", move)
}

func TestUCTProvesForcedWin(t *testing.T) {
	g := position(t, 0, 1, 5, 2)
	e := NewUCT()
	e.SetMoveTime(2 * time.Second)

	move, err := e.ComputeBestMove(g)
	require.NoError(t, err)
	requireWinningBranch(t, g, move)

	score, err := e.ComputeBestScore(g)
	require.NoError(t, err)
	require.Equal(t, tictactoe.MaxScore, score,
		"A proven win should settle the root score")
}

func TestUCTProvenRootStopsEarly(t *testing.T) {
	g := position(t, 0, 1, 5, 2)
	e := NewUCT()
	e.SetMoveTime(time.Minute)

	start := time.Now()
	_, err := e.ComputeBestMove(g)

	require.NoError(t, err)
	require.Less(t, time.Since(start), 30*time.Second,
		"A proven root should end the search before the countdown")
}

func TestUCTSeesForcedLoss(t *testing.T) {
	g := position(t, 1, 0, 5, 4, 7, 6)
	e := NewUCT()
	e.SetMoveTime(2 * time.Second)

	move, err := e.ComputeBestMove(g)
	require.NoError(t, err)
	require.True(t, g.IsLegal(move))

	score, err := e.ComputeBestScore(g)
	require.NoError(t, err)
	require.Equal(t, -tictactoe.MaxScore, score,
		"Every reply loses, so the root proves a loss")
}

func TestUCTOnEndedGame(t *testing.T) {
	g := position(t, 0, 3, 1, 4, 2)
	e := NewUCT()

	move, err := e.ComputeBestMove(g)
	require.NoError(t, err)
	require.Equal(t, game.NullMove, move)
}

func TestUCTLeavesGameUntouched(t *testing.T) {
	g := position(t, 4, 0)
	hash := g.Hash()
	e := NewUCT()
	e.SetMoveTime(50 * time.Millisecond)

	_, err := e.ComputeBestMove(g)
	require.NoError(t, err)

	require.Equal(t, 2, g.Length(), "The game should rewind to its position")
	require.Equal(t, hash, g.Hash())
}

func TestUCTTreeReuse(t *testing.T) {
	g := tictactoe.NewGame()
	e := NewUCT()
	e.SetMoveTime(100 * time.Millisecond)

	move, err := e.ComputeBestMove(g)
	require.NoError(t, err)

	// Play the engine move and a reply: the new position sits two
	// plies below the previous root, so the subtree is reused.

	g.MakeMove(move)
	g.MakeMove(g.LegalMoves()[0])

	reply, err := e.ComputeBestMove(g)
	require.NoError(t, err)
	require.True(t, g.IsLegal(reply))
	require.Equal(t, g.Hash(), e.tree.at(e.root).hash,
		"The root should match the new position")
}

func TestUCTPonderMove(t *testing.T) {
	g := tictactoe.NewGame()
	e := NewUCT()
	e.SetMoveTime(100 * time.Millisecond)

	move, err := e.ComputeBestMove(g)
	require.NoError(t, err)

	g.MakeMove(move)
	ponder := e.GetPonderMove(g)

	if ponder != game.NullMove {
		require.True(t, g.IsLegal(ponder),
			"A known ponder move must be legal")
	}
}

func TestUCTNodeCeiling(t *testing.T) {
	g := tictactoe.NewGame()
	e := NewUCT(WithMaxNodes(256))
	e.SetMoveTime(200 * time.Millisecond)

	_, err := e.ComputeBestMove(g)
	require.NoError(t, err)

	require.LessOrEqual(t, e.tree.live(), 2*256,
		"Pruning should keep the live tree near its ceiling")
}

func TestUCTNewMatchResetsTree(t *testing.T) {
	g := tictactoe.NewGame()
	e := NewUCT()
	e.SetMoveTime(50 * time.Millisecond)

	_, err := e.ComputeBestMove(g)
	require.NoError(t, err)
	require.Greater(t, e.tree.live(), 0)

	e.NewMatch()
	require.Equal(t, 0, e.tree.live(), "NewMatch should drop the tree")
	require.Equal(t, None, e.root)
}

func TestPUCTProvesForcedWin(t *testing.T) {
	g := position(t, 0, 1, 5, 2)
	e := NewPUCT()
	e.SetMoveTime(2 * time.Second)

	move, err := e.ComputeBestMove(g)
	require.NoError(t, err)
	requireWinningBranch(t, g, move)

	score, err := e.ComputeBestScore(g)
	require.NoError(t, err)
	require.Equal(t, tictactoe.MaxScore, score)
}

func TestMontecarloFindsImmediateWin(t *testing.T) {
	// South owns a1 and b2: c3 completes the diagonal.
	g := position(t, 0, 1, 4, 2)
	e := NewMontecarlo(WithSeed(11))
	e.SetMoveTime(2 * time.Second)

	move, err := e.ComputeBestMove(g)
	require.NoError(t, err)
	require.Equal(t, 8, move, "The diagonal win should be proven")

	score, err := e.ComputeBestScore(g)
	require.NoError(t, err)
	require.Equal(t, tictactoe.MaxScore, score)
}

func TestMontecarloRewindsPlayouts(t *testing.T) {
	g := position(t, 4)
	hash := g.Hash()
	e := NewMontecarlo(WithSeed(3))
	e.SetMoveTime(50 * time.Millisecond)

	_, err := e.ComputeBestMove(g)
	require.NoError(t, err)
	require.Equal(t, hash, g.Hash(),
		"Random playouts should rewind the game")
}

func TestPartnerReturnsLegalMoves(t *testing.T) {
	g := position(t, 0, 1, 4, 2)
	e := NewPartner(WithSeed(5))
	e.SetMoveTime(100 * time.Millisecond)

	move, err := e.ComputeBestMove(g)
	require.NoError(t, err)
	require.True(t, g.IsLegal(move))
}

func TestUCTContemptOrientsDraws(t *testing.T) {
	// One empty cell left and playing it draws: with a positive
	// contempt the engine scores the draw in its own favour.
	g := position(t, 4, 0, 8, 2, 1, 7, 3, 5)

	e := NewUCT()
	e.SetContempt(50)
	e.SetMoveTime(200 * time.Millisecond)

	score, err := e.ComputeBestScore(g)
	require.NoError(t, err)
	require.Equal(t, 50, score,
		"A drawn leaf should evaluate to the engine contempt")
}
