package cache

import "gametree/game"

// DefaultSize is the byte budget of a table created by NewTable.
const DefaultSize = 32 << 20

// Age penalty applied per generation when ranking a resident entry
// against an incoming store. A stale entry survives only while its
// extra depth outweighs its age.
const agePenalty = 2

type slot struct {
	hash  uint64
	move  int32
	score int32
	depth int16
	flag  Flag
	age   uint8
}

const slotSize = 24

// Table is a fixed-size transposition cache with single-slot
// replacement ranked by (age, depth).
type Table struct {
	slots []slot
	mask  uint64
	age   uint8
}

// NewTable creates a table with the default byte budget.
func NewTable() *Table {
	return NewTableSize(DefaultSize)
}

// NewTableSize creates a table with the given byte budget. The slot
// count is rounded down to a power of two.
func NewTableSize(sizeBytes int64) *Table {
	t := &Table{}
	t.Resize(sizeBytes)
	return t
}

// Resize reshapes the backing table, discarding all entries.
func (t *Table) Resize(sizeBytes int64) {
	count := uint64(sizeBytes / slotSize)

	if count < 1 {
		count = 1
	}

	count = floorPowerOfTwo(count)
	t.slots = make([]slot, count)
	t.mask = count - 1
	t.age = 0
}

func floorPowerOfTwo(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Size returns the byte size of the backing table.
func (t *Table) Size() int64 {
	return int64(len(t.slots)) * slotSize
}

// Clear erases all the stored entries and resets the generation tag.
func (t *Table) Clear() {
	for i := range t.slots {
		t.slots[i] = slot{}
	}

	t.age = 0
}

// Discharge bumps the generation tag. Entries stored before the bump
// become stale: they remain probeable but lose replacement rank to
// fresh records of comparable depth.
func (t *Table) Discharge() {
	t.age++
}

// Find returns the stored entry for the current position of the game.
func (t *Table) Find(g game.Game) (Entry, bool) {
	hash := g.Hash()
	s := &t.slots[hash&t.mask]

	if s.flag == Unknown || s.hash != hash {
		return Entry{}, false
	}

	entry := Entry{
		Hash:  s.hash,
		Move:  int(s.move),
		Score: int(s.score),
		Depth: int(s.depth),
		Flag:  s.flag,
	}

	return entry, true
}

// Store records an entry for the current position of the game. The
// resident entry survives when its depth, discounted by its age,
// outranks the incoming record.
func (t *Table) Store(g game.Game, score, move, depth int, flag Flag) {
	hash := g.Hash()
	s := &t.slots[hash&t.mask]

	if s.flag != Unknown && s.hash != hash {
		if t.rank(s) > depth {
			return
		}
	}

	s.hash = hash
	s.move = int32(move)
	s.score = int32(score)
	s.depth = int16(depth)
	s.flag = flag
	s.age = t.age
}

// rank scores a resident slot for replacement: its stored depth minus
// a penalty for each generation it has aged.
func (t *Table) rank(s *slot) int {
	return int(s.depth) - agePenalty*int(t.age-s.age)
}
