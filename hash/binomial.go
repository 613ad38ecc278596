package hash

// Binomial ranks states that are combinations: strictly increasing
// sequences of element indices. It implements the combinatorial
// number system, so the rank of a combination is its index in the
// lexicographic enumeration of all the combinations of the same size.
type Binomial struct {
	length int
}

// NewBinomial creates a ranking function for combinations of the
// given length.
func NewBinomial(length int) *Binomial {
	return &Binomial{length: length}
}

// Hash ranks a combination. The state must be strictly increasing.
func (h *Binomial) Hash(state []int) uint64 {
	var hash uint64

	for i := 0; i < h.length; i++ {
		hash += binomial(state[i], i+1)
	}

	return hash
}

// Unhash reconstructs the combination with the given rank.
func (h *Binomial) Unhash(hash uint64) []int {
	state := make([]int, h.length)

	for i := h.length; i > 0; i-- {
		n := i - 1

		for binomial(n+1, i) <= hash {
			n++
		}

		hash -= binomial(n, i)
		state[i-1] = n
	}

	return state
}
