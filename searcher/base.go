package searcher

import (
	"time"

	"gametree/clock"
)

// base carries the state shared by every engine: the cooperative
// clock, the search limits and the report subscriptions. Scores kept
// here follow the engine convention: maxScore is the proven-win
// magnitude and contempt replaces true draws.
type base struct {
	clock     *clock.Controller
	moveTime  time.Duration
	maxDepth  int
	contempt  int
	maxScore  int
	turn      int
	consumers []chan<- Report
}

func newBase() base {
	return base{
		clock:    clock.New(),
		moveTime: DefaultMoveTime,
		maxDepth: MaxDepth,
	}
}

// SetContempt adjusts the evaluation of drawn positions.
func (b *base) SetContempt(score int) {
	b.contempt = score
}

// SetInfinity sets the maximum score a position can obtain.
func (b *base) SetInfinity(score int) {
	if score > 0 {
		b.maxScore = score
	}
}

// SetMoveTime sets the time budget per move computation.
func (b *base) SetMoveTime(d time.Duration) {
	if d > 0 {
		b.moveTime = d
	}
}

// SetDepth limits the maximum search depth in plies.
func (b *base) SetDepth(depth int) {
	switch {
	case depth < 1:
		b.maxDepth = 1
	case depth > MaxDepth:
		b.maxDepth = MaxDepth
	default:
		b.maxDepth = depth
	}
}

// AbortComputation retargets the countdown of the ongoing computation.
func (b *base) AbortComputation(d time.Duration) {
	b.clock.AbortComputation(d)
}

// Attach subscribes a channel to search reports.
func (b *base) Attach(consumer chan<- Report) {
	b.consumers = append(b.consumers, consumer)
}

func (b *base) aborted() bool {
	return b.clock.Aborted()
}

// emit delivers a report to every consumer without blocking.
func (b *base) emit(report Report) {
	for _, consumer := range b.consumers {
		select {
		case consumer <- report:
		default:
		}
	}
}
