package bits

import (
	"encoding/binary"
	"errors"
	"io"
)

// Map is a fixed-width packed word store. It maps a dense range of
// hashes to small unsigned values of wordSize bits each, packing as
// many words as fit into each 64-bit entry. Endgame databases use it
// to store one score per position rank.
type Map struct {
	entries   []uint64
	entrySize int
	wordSize  int
	wordMask  uint64
}

// NewMap creates a packed store for capacity words of wordSize bits.
// The word size must divide 64.
func NewMap(wordSize int, capacity uint64) *Map {
	entrySize := 64 / wordSize

	return &Map{
		entries:   make([]uint64, 1+capacity/uint64(entrySize)),
		entrySize: entrySize,
		wordSize:  wordSize,
		wordMask:  1<<uint(wordSize) - 1,
	}
}

// Get returns the word stored for a hash.
func (m *Map) Get(hash uint64) uint64 {
	slot := m.slot(hash)
	position := m.position(hash)
	return m.wordMask & (m.entries[slot] >> position)
}

// Put stores a word for a hash, truncated to the word size.
func (m *Map) Put(hash, value uint64) {
	slot := m.slot(hash)
	position := m.position(hash)
	m.entries[slot] &^= m.wordMask << position
	m.entries[slot] |= (m.wordMask & value) << position
}

func (m *Map) slot(hash uint64) int {
	return int(hash / uint64(m.entrySize))
}

func (m *Map) position(hash uint64) uint {
	return uint(m.wordSize) * uint(hash%uint64(m.entrySize))
}

// ReadFrom fills the map from its serialized form. A truncated stream
// loads a partial table, which lets a database ship only its populated
// prefix.
func (m *Map) ReadFrom(r io.Reader) (int64, error) {
	var read int64
	var word [8]byte

	for i := range m.entries {
		n, err := io.ReadFull(r, word[:])
		read += int64(n)

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return read, nil
		} else if err != nil {
			return read, err
		}

		m.entries[i] = binary.BigEndian.Uint64(word[:])
	}

	return read, nil
}

// WriteTo serializes the map.
func (m *Map) WriteTo(w io.Writer) (int64, error) {
	var written int64
	var word [8]byte

	for _, entry := range m.entries {
		binary.BigEndian.PutUint64(word[:], entry)
		n, err := w.Write(word[:])
		written += int64(n)

		if err != nil {
			return written, err
		}
	}

	return written, nil
}
