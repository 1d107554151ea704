package testutil

import "sync"

// DeterministicClock hands out block heights 1, 2, 3, ... for tests.
//
// Unlike host.Clock, DeterministicClock can be reset, so the same
// scenario can run repeatedly with identical heights.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu     sync.Mutex
	height uint64
}

// NewDeterministicClock creates a clock whose first height is 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next height.
func (c *DeterministicClock) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height++
	return c.height
}

// Current returns the last height handed out.
func (c *DeterministicClock) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Reset rewinds the clock. After Reset, Next returns 1.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = 0
}
