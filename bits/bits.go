// Package bits provides bitboard helpers and packed word storage for
// game implementations and endgame databases.
package bits

import "math/bits"

// Empty checks if no bit is set.
func Empty(bitboard uint64) bool {
	return bitboard == 0
}

// First returns the index of the lowest set bit, or 64 when empty.
func First(bitboard uint64) int {
	return bits.TrailingZeros64(bitboard)
}

// Last returns the index of the highest set bit.
func Last(bitboard uint64) int {
	return bits.LeadingZeros64(bitboard) ^ 63
}

// Next returns the index of the lowest set bit above the given index,
// or 64 when there is none.
func Next(bitboard uint64, index int) int {
	return bits.TrailingZeros64(bitboard & (^uint64(1) << uint(index)))
}

// Contains checks if any of the given bits is set on the bitboard.
func Contains(bitboard, set uint64) bool {
	return bitboard&set != 0
}

// Includes checks if all the given bits are set on the bitboard.
func Includes(bitboard, set uint64) bool {
	return bitboard&set == set
}

// Count returns the number of set bits.
func Count(bitboard uint64) int {
	return bits.OnesCount64(bitboard)
}

// Bit returns a bitboard with only the given bit set.
func Bit(index int) uint64 {
	return 1 << uint(index)
}

// Remove deletes the given bit position, shifting all the higher bits
// down by one place.
func Remove(bitboard uint64, index int) uint64 {
	mask := Bit(index) - 1
	upper := (bitboard >> 1) &^ mask
	lower := bitboard & mask
	return upper | lower
}

// Insert opens a zero bit at the given position, shifting all the
// higher bits up by one place.
func Insert(bitboard uint64, index int) uint64 {
	mask := Bit(index) - 1
	upper := (bitboard &^ mask) << 1
	lower := bitboard & mask
	return upper | lower
}

// Rotate reverses the bit order of the bitboard.
func Rotate(bitboard uint64) uint64 {
	return bits.Reverse64(bitboard)
}

// MirrorX mirrors an 8x8 bitboard along its horizontal axis.
func MirrorX(bitboard uint64) uint64 {
	return bits.ReverseBytes64(bitboard)
}

// MirrorY mirrors an 8x8 bitboard along its vertical axis.
func MirrorY(bitboard uint64) uint64 {
	const k1 = 0x5555555555555555
	const k2 = 0x3333333333333333
	const k4 = 0x0f0f0f0f0f0f0f0f

	bitboard = ((bitboard >> 1) & k1) + 2*(bitboard&k1)
	bitboard = ((bitboard >> 2) & k2) + 4*(bitboard&k2)
	bitboard = ((bitboard >> 4) & k4) + 16*(bitboard&k4)

	return bitboard
}

// TransposeXY transposes an 8x8 bitboard along its main diagonal.
func TransposeXY(bitboard uint64) uint64 {
	const k1 = 0x00AA00AA00AA00AA
	const k2 = 0x0000CCCC0000CCCC
	const k4 = 0x00000000F0F0F0F0

	t1 := k1 & (bitboard ^ (bitboard >> 7))
	bitboard = bitboard ^ t1 ^ (t1 << 7)

	t2 := k2 & (bitboard ^ (bitboard >> 14))
	bitboard = bitboard ^ t2 ^ (t2 << 14)

	t4 := k4 & (bitboard ^ (bitboard >> 28))
	bitboard = bitboard ^ t4 ^ (t4 << 28)

	return bitboard
}

// TransposeYX transposes an 8x8 bitboard along its minor diagonal.
func TransposeYX(bitboard uint64) uint64 {
	return Rotate(TransposeXY(bitboard))
}

// Rotate90 rotates an 8x8 bitboard a quarter turn clockwise.
func Rotate90(bitboard uint64) uint64 {
	return MirrorX(TransposeXY(bitboard))
}

// Rotate270 rotates an 8x8 bitboard a quarter turn anticlockwise.
func Rotate270(bitboard uint64) uint64 {
	return Rotate(MirrorX(TransposeXY(bitboard)))
}
