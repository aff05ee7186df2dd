package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts timer creation so fire-at-offset semantics can be tested
// without wall-clock sleeps.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func())
}

// RealClock is the production Clock backed by the runtime timers.
type RealClock struct{}

// Now returns the current wall-clock time.
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc arranges for fn to run once after d has elapsed.
func (RealClock) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// VirtualClock is a deterministic Clock for tests: timers fire synchronously
// when Advance moves simulated time past their deadline.
type VirtualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []virtualTimer
}

type virtualTimer struct {
	at time.Time
	fn func()
}

// NewVirtualClock creates a virtual clock starting at the given instant.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

// Now returns the simulated time.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers fn to fire when simulated time reaches now+d.
func (c *VirtualClock) AfterFunc(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers = append(c.timers, virtualTimer{at: c.now.Add(d), fn: fn})
}

// Advance moves simulated time forward and fires every due timer in
// deadline order, synchronously on the caller's goroutine.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now

	var due []virtualTimer
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if !t.at.After(now) {
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}
