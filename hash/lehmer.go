package hash

import "math/bits"

func popcount(value uint64) int {
	return bits.OnesCount64(value)
}

// Lehmer ranks states that are sequences of distinct elements. The
// hash of a state is the index of the sequence in the lexicographic
// enumeration of all the sequences of the same length, which makes it
// a minimal perfect hash suitable for indexing endgame databases.
type Lehmer struct {
	binomials []uint64
	length    int
	count     int
}

// NewLehmer creates a ranking function for sequences of the given
// length drawn without repetition from count distinct elements.
func NewLehmer(count, length int) *Lehmer {
	h := &Lehmer{
		binomials: make([]uint64, length),
		length:    length,
		count:     count,
	}

	for i := 0; i < length; i++ {
		n := count - i - 1
		k := length - i - 1
		h.binomials[i] = factorial(k) * binomial(n, k)
	}

	return h
}

func factorial(n int) uint64 {
	value := uint64(1)

	for i := uint64(1); i <= uint64(n); i++ {
		value *= i
	}

	return value
}

func binomial(n, k int) uint64 {
	value := uint64(1)

	if k < 0 || k > n {
		return 0
	}

	if k > n-k {
		k = n - k
	}

	for i := 0; i < k; i++ {
		value *= uint64(n - i)
		value /= uint64(i + 1)
	}

	return value
}

// Hash ranks a state. Each element must appear at most once and fit
// in the range [0, 64).
func (h *Lehmer) Hash(state []int) uint64 {
	counted := uint64(1) << state[0]
	hash := uint64(state[0]) * h.binomials[0]

	for i := 1; i < h.length; i++ {
		bit := uint64(1) << state[i]
		lower := popcount(counted & (bit - 1))
		hash += uint64(state[i]-lower) * h.binomials[i]
		counted ^= bit
	}

	return hash
}

// Unhash reconstructs the state with the given rank. It is the exact
// inverse of Hash.
func (h *Lehmer) Unhash(hash uint64) []int {
	state := make([]int, h.length)

	for i := 0; i < h.length; i++ {
		base := h.binomials[i]
		state[i] = int(hash / base)
		hash = hash % base
	}

	for i := h.length - 1; i >= 0; i-- {
		for n := i + 1; n < h.length; n++ {
			if state[n] >= state[i] {
				state[n]++
			}
		}
	}

	return state
}
