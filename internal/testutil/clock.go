package testutil

import (
	"sync"
	"time"
)

// FakeClock is a settable wall clock with one-second resolution.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu  sync.Mutex
	now uint64
}

// NewFakeClock creates a clock reading the given unix seconds.
func NewFakeClock(unix uint64) *FakeClock {
	return &FakeClock{now: unix}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	return time.Unix(int64(c.Unix()), 0).UTC()
}

// Unix returns the current fake time in seconds.
func (c *FakeClock) Unix() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to unix seconds, forwards or backwards.
func (c *FakeClock) Set(unix uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = unix
}

// Advance moves the clock forward by seconds and returns the new reading.
func (c *FakeClock) Advance(seconds uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
	return c.now
}
