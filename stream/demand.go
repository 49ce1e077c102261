package stream

import "sync/atomic"

// addCap adds n to the demand counter, saturating at Unbounded, and returns
// the value the counter held before the addition.
func addCap(c *atomic.Int64, n int64) int64 {
	for {
		cur := c.Load()
		if cur == Unbounded {
			return Unbounded
		}
		next := cur + n
		if next < 0 {
			next = Unbounded
		}
		if c.CompareAndSwap(cur, next) {
			return cur
		}
	}
}

// produced subtracts n emitted items from the demand counter and returns
// what is left. Unbounded demand is never decremented.
func produced(c *atomic.Int64, n int64) int64 {
	for {
		cur := c.Load()
		if cur == Unbounded {
			return Unbounded
		}
		next := cur - n
		if next < 0 {
			next = 0
		}
		if c.CompareAndSwap(cur, next) {
			return next
		}
	}
}
