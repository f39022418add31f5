package engine

import "sync/atomic"

// Clock hands out a strictly increasing sequence number for every event a
// running task emits, so a trace log or test can recover arrival order
// even if events are later reordered by a slow sink.
type Clock struct {
	seq atomic.Uint64
}

// NewClock returns a Clock starting at sequence 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number, starting at 1.
func (c *Clock) Next() uint64 {
	return c.seq.Add(1)
}
