// Package bench provides pass-through decorators that meter the
// games, caches and endgame databases handed to an engine. All the
// counters land on a shared Stats accumulator, so a benchmark can
// compare engines without touching their hot paths beyond one
// indirection.
package bench

import (
	"math"
	"sync/atomic"
	"time"
)

// Counter is an atomic event counter.
type Counter struct {
	value atomic.Int64
}

// Increment adds one event.
func (c *Counter) Increment() {
	c.value.Add(1)
}

// Count returns the accumulated events.
func (c *Counter) Count() int64 {
	return c.value.Load()
}

// Average accumulates an arithmetic mean.
type Average struct {
	sum   atomic.Int64
	count atomic.Int64
}

// Aggregate folds a sample into the mean.
func (a *Average) Aggregate(value int64) {
	a.sum.Add(value)
	a.count.Add(1)
}

// Mean returns the accumulated average.
func (a *Average) Mean() float64 {
	count := a.count.Load()

	if count == 0 {
		return 0
	}

	return float64(a.sum.Load()) / float64(count)
}

// Stats accumulates the measurements of a benchmark run.
type Stats struct {
	start time.Time

	// Moves counts root searches.
	Moves Counter

	// Visits counts moves made on the game.
	Visits Counter

	// Terminal counts exact evaluations.
	Terminal Counter

	// Heuristic counts heuristic evaluations.
	Heuristic Counter

	// Cache counts transposition probes.
	Cache Counter

	// Leaves counts endgame database probes.
	Leaves Counter

	// Depth averages the reached evaluation depth.
	Depth Average
}

// NewStats creates an accumulator with a running watch.
func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

// Restart resets the watch without clearing the counters.
func (s *Stats) Restart() {
	s.start = time.Now()
}

// Elapsed returns the time since the watch started.
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.start)
}

// VisitsPerSecond is the observed node throughput.
func (s *Stats) VisitsPerSecond() float64 {
	seconds := s.Elapsed().Seconds()

	if seconds == 0 {
		return 0
	}

	return float64(s.Visits.Count()) / seconds
}

// BranchingFactor estimates the effective branching factor from the
// evaluation count and the average reached depth.
func (s *Stats) BranchingFactor() float64 {
	moves := s.Moves.Count()
	depth := s.Depth.Mean()

	if moves == 0 || depth == 0 {
		return 0
	}

	count := s.Terminal.Count() + s.Heuristic.Count()

	return math.Pow(float64(count)/float64(moves), 1/depth)
}
