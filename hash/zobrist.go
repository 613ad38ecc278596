package hash

import "golang.org/x/exp/rand"

// Zobrist implements tabulation hashing: each (slot, value) pair is
// assigned a fixed random key and the hash of a state is the exclusive
// or of the keys of its occupied slots. Flipping a single slot updates
// the hash with one xor, which makes it the hash of choice for games
// with make/unmake state machines.
type Zobrist struct {
	keys  [][]uint64
	count int
}

// NewZobrist creates a hash function for states of the given length
// where each slot holds one of count distinct values. The key table is
// derived deterministically from the seed so that equal games hash
// equally across processes.
func NewZobrist(count, length int, seed uint64) *Zobrist {
	rng := rand.New(rand.NewSource(seed))
	keys := make([][]uint64, length)

	for i := range keys {
		keys[i] = make([]uint64, count)
		for j := range keys[i] {
			keys[i][j] = rng.Uint64()
		}
	}

	return &Zobrist{keys: keys, count: count}
}

// Key returns the tabulation key of a (slot, value) pair. Games use it
// to update their hash incrementally on each make/unmake.
func (z *Zobrist) Key(slot, value int) uint64 {
	return z.keys[slot][value]
}

// Hash computes the hash of a full state. The zero value of a slot
// does not contribute to the hash, so sparse boards hash cheaply.
func (z *Zobrist) Hash(state []int) uint64 {
	var hash uint64

	for i, value := range state {
		if value != 0 {
			hash ^= z.keys[i][value]
		}
	}

	return hash
}
