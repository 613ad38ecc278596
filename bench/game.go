package bench

import "gametree/game"

// Game meters a decorated game. Move makes count as visits and each
// evaluation aggregates the depth it was reached at.
type Game struct {
	stats *Stats
	inner game.Game
}

var _ game.Game = (*Game)(nil)

// NewGame decorates a game with the given accumulator.
func NewGame(stats *Stats, inner game.Game) *Game {
	return &Game{stats: stats, inner: inner}
}

// Inner returns the decorated game.
func (g *Game) Inner() game.Game {
	return g.inner
}

// MakeMove counts a visit.
func (g *Game) MakeMove(move int) {
	g.stats.Visits.Increment()
	g.inner.MakeMove(move)
}

// Score counts a heuristic evaluation.
func (g *Game) Score() int {
	g.stats.Heuristic.Increment()
	g.stats.Depth.Aggregate(int64(g.inner.Length()))
	return g.inner.Score()
}

// Outcome counts an exact evaluation.
func (g *Game) Outcome() int {
	g.stats.Terminal.Increment()
	g.stats.Depth.Aggregate(int64(g.inner.Length()))
	return g.inner.Outcome()
}

func (g *Game) Length() int                      { return g.inner.Length() }
func (g *Game) Moves() []int                     { return g.inner.Moves() }
func (g *Game) Turn() int                        { return g.inner.Turn() }
func (g *Game) Hash() uint64                     { return g.inner.Hash() }
func (g *Game) HasEnded() bool                   { return g.inner.HasEnded() }
func (g *Game) Winner() int                      { return g.inner.Winner() }
func (g *Game) Contempt() int                    { return g.inner.Contempt() }
func (g *Game) Infinity() int                    { return g.inner.Infinity() }
func (g *Game) IsLegal(move int) bool            { return g.inner.IsLegal(move) }
func (g *Game) UnmakeMove()                      { g.inner.UnmakeMove() }
func (g *Game) UnmakeMoves(length int)           { g.inner.UnmakeMoves(length) }
func (g *Game) NextMove() int                    { return g.inner.NextMove() }
func (g *Game) LegalMoves() []int                { return g.inner.LegalMoves() }
func (g *Game) GetCursor() int                   { return g.inner.GetCursor() }
func (g *Game) SetCursor(cursor int)             { g.inner.SetCursor(cursor) }
func (g *Game) EnsureCapacity(n int) error       { return g.inner.EnsureCapacity(n) }
func (g *Game) SetBoard(board game.Board) error  { return g.inner.SetBoard(board) }
func (g *Game) GetBoard() game.Board             { return g.inner.GetBoard() }
func (g *Game) ToBoard() game.Board              { return g.inner.ToBoard() }
func (g *Game) EndMatch()                        { g.inner.EndMatch() }
func (g *Game) ToCentiPawns(score int) int       { return g.inner.ToCentiPawns(score) }
