package runtime

import "sync/atomic"

// Clock is the monotonic logical clock that stamps event seqs.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// In practice only the dispatching goroutine calls Next and Rewind.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start, so the next seq is start+1.
// Used on open to resume after the backend's last committed event.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Rewind moves the clock back to mark. Called when a transaction that drew
// seqs after mark is rolled back, so committed seqs stay gap-free.
func (c *Clock) Rewind(mark int64) {
	c.seq.Store(mark)
}
