// Package clock implements the cooperative time controller used by
// the search engines. A controller arms a countdown before a search
// and flips an atomic flag when it expires; searches poll the flag at
// iteration boundaries and inside the recursive descent. There is no
// preemption.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Controller is a cooperative countdown. The zero value is ready to
// use and reports no abort until a countdown is scheduled.
type Controller struct {
	mu      sync.Mutex
	timer   *time.Timer
	aborted atomic.Bool
}

// New creates a countdown controller.
func New() *Controller {
	return &Controller{}
}

// ScheduleCountDown arms the countdown: after the given duration
// elapses Aborted reports true. A non-positive duration disables the
// deadline, so the search runs until cancelled or aborted explicitly.
func (c *Controller) ScheduleCountDown(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stop()
	c.aborted.Store(false)

	if d > 0 {
		c.timer = time.AfterFunc(d, func() {
			c.aborted.Store(true)
		})
	}
}

// AbortComputation retargets a running countdown, aborting after the
// given duration from now. A non-positive duration aborts immediately.
// Retargeting converts ponder time into search time on a ponder hit.
func (c *Controller) AbortComputation(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stop()

	if d <= 0 {
		c.aborted.Store(true)
		return
	}

	c.timer = time.AfterFunc(d, func() {
		c.aborted.Store(true)
	})
}

// CancelCountDown disarms the countdown and clears the abort flag.
func (c *Controller) CancelCountDown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stop()
	c.aborted.Store(false)
}

// Aborted reports if the countdown expired or an abort was requested.
func (c *Controller) Aborted() bool {
	return c.aborted.Load()
}

func (c *Controller) stop() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
