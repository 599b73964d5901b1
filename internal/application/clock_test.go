package application_test

import (
	"sync"
	"time"
)

// managedClock is a Clock whose time only moves when a caller waits on it.
// After advances the clock by d and returns an already-fired channel, so poll
// loops run without real sleeps while still accounting simulated time.
type managedClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newManagedClock(start time.Time) *managedClock {
	return &managedClock{now: start}
}

func (c *managedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *managedClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.waits = append(c.waits, d)

	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// WarpForward moves time forward without recording a wait.
func (c *managedClock) WarpForward(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *managedClock) Waited() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, w := range c.waits {
		total += w
	}
	return total
}

func (c *managedClock) WaitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waits)
}

// blockingClock never fires, so only context cancellation ends a wait.
type blockingClock struct{}

func (blockingClock) Now() time.Time                       { return time.Now() }
func (blockingClock) After(time.Duration) <-chan time.Time { return make(chan time.Time) }
