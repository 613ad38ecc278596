package tictactoe

import (
	"fmt"
	"math/bits"

	"gametree/game"
	"gametree/hash"
)

// MaxScore is the score of a won position.
const MaxScore = 1000

// MaxCapacity is the absolute maximum capacity of the move stacks.
const MaxCapacity = 1 << 16

// Fixed tabulation seed so equal positions hash equally everywhere.
const zobristSeed = 0x9e3779b97f4a7c15

// Winning cell masks, one per line.
var lines = [8]uint16{
	0b000000111, 0b000111000, 0b111000000,
	0b001001001, 0b010010010, 0b100100100,
	0b100010001, 0b001010100,
}

// Static move ordering: center, corners, then edges.
var ordering = [Cells]int{4, 0, 2, 6, 8, 1, 3, 5, 7}

// Line weights by number of own pieces on an otherwise open line.
var weights = [3]int{0, 2, 8}

var zobrist = hash.NewZobrist(3, 1+Cells, zobristSeed)

// TicTacToe is the mutable game state: a stack of moves on top of an
// immutable start board.
type TicTacToe struct {
	start    *Board
	cells    [Cells]int
	south    uint16
	north    uint16
	turn     int
	hash     uint64
	cursor   int
	moves    []int
	cursors  []int
	contempt int
}

var _ game.Game = (*TicTacToe)(nil)

// NewGame creates a game on the start position.
func NewGame() *TicTacToe {
	t := &TicTacToe{
		moves:   make([]int, 0, Cells),
		cursors: make([]int, 0, Cells),
	}

	_ = t.SetBoard(NewBoard())

	return t
}

// Length returns the number of performed moves.
func (t *TicTacToe) Length() int {
	return len(t.moves)
}

// Moves returns the performed moves.
func (t *TicTacToe) Moves() []int {
	moves := make([]int, len(t.moves))
	copy(moves, t.moves)
	return moves
}

// Turn returns the player to move.
func (t *TicTacToe) Turn() int {
	return t.turn
}

// Hash returns the tabulation hash of the current position.
func (t *TicTacToe) Hash() uint64 {
	return t.hash
}

// HasEnded checks if a player completed a line or the board is full.
func (t *TicTacToe) HasEnded() bool {
	return t.Winner() != game.Draw || t.south|t.north == 0b111111111
}

// Winner identifies the player that completed a line, if any.
func (t *TicTacToe) Winner() int {
	for _, line := range lines {
		if t.south&line == line {
			return game.South
		}

		if t.north&line == line {
			return game.North
		}
	}

	return game.Draw
}

// Score is the heuristic evaluation from south's point of view: each
// line open for only one player counts towards that player, weighted
// by how many pieces the player already placed on it.
func (t *TicTacToe) Score() int {
	score := 0

	for _, line := range lines {
		south := popcount16(t.south & line)
		north := popcount16(t.north & line)

		if north == 0 && south < 3 {
			score += weights[south]
		}

		if south == 0 && north < 3 {
			score -= weights[north]
		}
	}

	return score
}

// Outcome is the utility of the position as an endgame.
func (t *TicTacToe) Outcome() int {
	switch t.Winner() {
	case game.South:
		return MaxScore
	case game.North:
		return -MaxScore
	}

	return game.DrawScore
}

// Contempt returns the score to which a draw is evaluated.
func (t *TicTacToe) Contempt() int {
	return t.contempt
}

// SetContempt adjusts the draw evaluation.
func (t *TicTacToe) SetContempt(score int) {
	t.contempt = score
}

// Infinity is the maximum score of a position.
func (t *TicTacToe) Infinity() int {
	return MaxScore
}

// IsLegal checks if a cell may be played on the current position.
func (t *TicTacToe) IsLegal(move int) bool {
	if move < 0 || move >= Cells || t.cells[move] != 0 {
		return false
	}

	return !t.HasEnded()
}

// MakeMove places the mover's piece on a cell. It does not check the
// legality of the move.
func (t *TicTacToe) MakeMove(move int) {
	t.moves = append(t.moves, move)
	t.cursors = append(t.cursors, t.cursor)

	if t.turn == game.South {
		t.cells[move] = 1
		t.south |= 1 << uint(move)
		t.hash ^= zobrist.Key(move, 1)
	} else {
		t.cells[move] = 2
		t.north |= 1 << uint(move)
		t.hash ^= zobrist.Key(move, 2)
	}

	t.hash ^= zobrist.Key(Cells, 1)
	t.turn = -t.turn
	t.cursor = 0
}

// UnmakeMove reverts the last performed move, restoring the move
// cursor the position had before the matching MakeMove.
func (t *TicTacToe) UnmakeMove() {
	if len(t.moves) == 0 {
		panic(game.ErrInvalidOperation)
	}

	last := len(t.moves) - 1
	move := t.moves[last]

	t.cursor = t.cursors[last]
	t.moves = t.moves[:last]
	t.cursors = t.cursors[:last]
	t.turn = -t.turn

	if t.turn == game.South {
		t.south &^= 1 << uint(move)
		t.hash ^= zobrist.Key(move, 1)
	} else {
		t.north &^= 1 << uint(move)
		t.hash ^= zobrist.Key(move, 2)
	}

	t.cells[move] = 0
	t.hash ^= zobrist.Key(Cells, 1)
}

// UnmakeMoves reverts the given number of moves.
func (t *TicTacToe) UnmakeMoves(length int) {
	for i := 0; i < length; i++ {
		t.UnmakeMove()
	}
}

// NextMove returns the next legal move in the static ordering, or
// NullMove once the iteration is exhausted.
func (t *TicTacToe) NextMove() int {
	if t.HasEnded() {
		return game.NullMove
	}

	for t.cursor < Cells {
		move := ordering[t.cursor]
		t.cursor++

		if t.cells[move] == 0 {
			return move
		}
	}

	return game.NullMove
}

// LegalMoves returns the playable cells in the static ordering. It
// does not perturb the move cursor.
func (t *TicTacToe) LegalMoves() []int {
	if t.HasEnded() {
		return nil
	}

	moves := make([]int, 0, Cells-len(t.moves))

	for _, move := range ordering {
		if t.cells[move] == 0 {
			moves = append(moves, move)
		}
	}

	return moves
}

// GetCursor returns the move generation cursor.
func (t *TicTacToe) GetCursor() int {
	return t.cursor
}

// SetCursor restores a saved move generation cursor.
func (t *TicTacToe) SetCursor(cursor int) {
	t.cursor = cursor
}

// EnsureCapacity grows the move stacks to admit at least the given
// number of moves.
func (t *TicTacToe) EnsureCapacity(minCapacity int) error {
	if minCapacity > MaxCapacity {
		return fmt.Errorf("%w: %d", game.ErrCapacityExceeded, minCapacity)
	}

	if minCapacity > cap(t.moves) {
		moves := make([]int, len(t.moves), minCapacity)
		copy(moves, t.moves)
		t.moves = moves

		cursors := make([]int, len(t.cursors), minCapacity)
		copy(cursors, t.cursors)
		t.cursors = cursors
	}

	return nil
}

// SetBoard sets a new start position, resetting the game state.
func (t *TicTacToe) SetBoard(board game.Board) error {
	b, ok := board.(*Board)

	if !ok {
		return fmt.Errorf("%w: not a tic-tac-toe board", game.ErrInvalidPosition)
	}

	if err := b.validate(); err != nil {
		return err
	}

	start := *b
	t.start = &start
	t.cells = b.cells
	t.turn = b.turn
	t.south = 0
	t.north = 0
	t.moves = t.moves[:0]
	t.cursors = t.cursors[:0]
	t.cursor = 0
	t.hash = 0

	for i, cell := range t.cells {
		switch cell {
		case 1:
			t.south |= 1 << uint(i)
			t.hash ^= zobrist.Key(i, 1)
		case 2:
			t.north |= 1 << uint(i)
			t.hash ^= zobrist.Key(i, 2)
		}
	}

	if t.turn == game.North {
		t.hash ^= zobrist.Key(Cells, 1)
	}

	return nil
}

// GetBoard returns the start board of this game.
func (t *TicTacToe) GetBoard() game.Board {
	board := *t.start
	return &board
}

// ToBoard returns a board for the current position.
func (t *TicTacToe) ToBoard() game.Board {
	return &Board{cells: t.cells, turn: t.turn}
}

// EndMatch is a no-op: the board does not change after the game ends.
func (t *TicTacToe) EndMatch() {}

// ToCentiPawns scales a score so a win is worth one hundred.
func (t *TicTacToe) ToCentiPawns(score int) int {
	return score / 10
}

func popcount16(value uint16) int {
	return bits.OnesCount16(value)
}
