package host

import "sync/atomic"

// HeightSource supplies block heights, one per unit of work.
type HeightSource interface {
	Next() uint64
}

// Clock is a logical block-height clock.
//
// Each unit of work gets a strictly greater height than the previous one.
// Safe for concurrent use.
type Clock struct {
	height atomic.Uint64
}

// NewClock creates a clock whose first height is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after height start.
func NewClockAt(start uint64) *Clock {
	c := &Clock{}
	c.height.Store(start)
	return c
}

// Next advances the clock and returns the new height.
func (c *Clock) Next() uint64 {
	return c.height.Add(1)
}

// Current returns the last height handed out.
func (c *Clock) Current() uint64 {
	return c.height.Load()
}
