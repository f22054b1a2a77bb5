package perf

import (
	"sync"
	"time"
)

// rpsCounter accumulates requests and turns them into a rate once at least
// one second has passed since the last reset.
type rpsCounter struct {
	mu        sync.Mutex
	now       func() time.Time
	count     int64
	lastReset time.Time
	rate      float64
}

func newRPSCounter(now func() time.Time) *rpsCounter {
	return &rpsCounter{now: now, lastReset: now()}
}

func (c *rpsCounter) inc() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

// tick recomputes the rate if the window has elapsed and reports whether it did.
func (c *rpsCounter) tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	elapsed := now.Sub(c.lastReset).Seconds()
	if elapsed < 1.0 {
		return false
	}
	c.rate = float64(c.count) / elapsed
	c.count = 0
	c.lastReset = now
	return true
}

func (c *rpsCounter) value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}
