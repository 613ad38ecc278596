package game

import "errors"

var (
	// ErrInvalidPosition reports a board diagram that the game
	// cannot parse or that breaks the rules of the game.
	ErrInvalidPosition = errors.New("game: invalid position")

	// ErrInvalidMove reports a coordinate or notation that does not
	// encode a move of the game.
	ErrInvalidMove = errors.New("game: invalid move")

	// ErrCapacityExceeded reports an EnsureCapacity request above
	// the absolute maximum capacity of the game.
	ErrCapacityExceeded = errors.New("game: capacity exceeded")

	// ErrInvalidOperation reports a state machine misuse, such as
	// unmaking a move when the history is empty.
	ErrInvalidOperation = errors.New("game: invalid operation")
)
