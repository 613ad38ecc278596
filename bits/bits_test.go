package bits

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanHelpers(t *testing.T) {
	bitboard := Bit(3) | Bit(17) | Bit(60)

	require.False(t, Empty(bitboard))
	require.True(t, Empty(0))
	require.Equal(t, 3, First(bitboard))
	require.Equal(t, 60, Last(bitboard))
	require.Equal(t, 17, Next(bitboard, 3))
	require.Equal(t, 60, Next(bitboard, 17))
	require.Equal(t, 64, Next(bitboard, 60), "No next bit should scan to 64")
	require.Equal(t, 3, Count(bitboard))
	require.True(t, Contains(bitboard, Bit(17)))
	require.False(t, Contains(bitboard, Bit(16)))
	require.True(t, Includes(bitboard, Bit(3)|Bit(60)))
	require.False(t, Includes(bitboard, Bit(3)|Bit(4)))
}

func TestInsertRemoveAreInverses(t *testing.T) {
	bitboard := uint64(0b1011_0110)

	inserted := Insert(bitboard, 4)
	require.Equal(t, uint64(0b1_0110_0110), inserted,
		"Insert should open a zero bit shifting higher bits up")
	require.Equal(t, bitboard, Remove(inserted, 4),
		"Remove should undo Insert")
}

func TestMirrorsAndTransposes(t *testing.T) {
	// A single bit at (file 2, rank 1) on an 8x8 board.
	bitboard := Bit(8 + 2)

	require.Equal(t, Bit(8*6+2), MirrorX(bitboard),
		"MirrorX should flip ranks")
	require.Equal(t, Bit(8+5), MirrorY(bitboard),
		"MirrorY should flip files")
	require.Equal(t, Bit(8*2+1), TransposeXY(bitboard),
		"TransposeXY should swap file and rank")
	require.Equal(t, bitboard, Rotate(Rotate(bitboard)),
		"Rotate is an involution")
	require.Equal(t, bitboard,
		Rotate270(Rotate90(bitboard)),
		"Quarter turns should cancel out")
}

func TestMapPutGet(t *testing.T) {
	m := NewMap(4, 100)

	m.Put(0, 0b1010)
	m.Put(1, 0b0101)
	m.Put(99, 0xFF)

	require.Equal(t, uint64(0b1010), m.Get(0))
	require.Equal(t, uint64(0b0101), m.Get(1))
	require.Equal(t, uint64(0xF), m.Get(99),
		"Values should truncate to the word size")
	require.Equal(t, uint64(0), m.Get(50), "Unset words should be zero")

	m.Put(0, 0b0011)
	require.Equal(t, uint64(0b0011), m.Get(0), "Put should overwrite")
	require.Equal(t, uint64(0b0101), m.Get(1), "Neighbours should not change")
}

func TestMapSerializationRoundTrip(t *testing.T) {
	m := NewMap(8, 64)

	for i := uint64(0); i < 64; i++ {
		m.Put(i, i*3)
	}

	var buffer bytes.Buffer
	_, err := m.WriteTo(&buffer)
	require.NoError(t, err)

	loaded := NewMap(8, 64)
	_, err = loaded.ReadFrom(&buffer)
	require.NoError(t, err)

	for i := uint64(0); i < 64; i++ {
		require.Equal(t, m.Get(i), loaded.Get(i),
			"Word %d should round trip", i)
	}
}

func TestMapReadsPartialTables(t *testing.T) {
	m := NewMap(8, 64)
	m.Put(0, 42)

	var buffer bytes.Buffer
	_, err := m.WriteTo(&buffer)
	require.NoError(t, err)

	larger := NewMap(8, 1024)
	_, err = larger.ReadFrom(&buffer)
	require.NoError(t, err, "A truncated stream should load a partial table")
	require.Equal(t, uint64(42), larger.Get(0))
}
