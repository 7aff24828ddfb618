// Package ratelimit throttles repeated log lines while still counting every
// occurrence.
package ratelimit

import (
	"sync/atomic"
	"time"
)

// Counter counts events and allows a report at most once per interval.
// It is safe for concurrent use. The zero value always allows.
type Counter struct {
	interval time.Duration
	now      func() time.Time
	lastLog  atomic.Int64
	total    atomic.Uint64
	since    atomic.Uint64
}

// NewCounter returns a Counter that allows one report per interval.
// A zero or negative interval disables throttling.
func NewCounter(interval time.Duration) *Counter {
	return &Counter{interval: interval, now: time.Now}
}

// Inc records one event. It returns the number of events since the last
// allowed report (including this one) and whether this event may be reported.
func (c *Counter) Inc() (uint64, bool) {
	if c == nil {
		return 0, false
	}
	c.total.Add(1)
	pending := c.since.Add(1)
	if c.interval <= 0 {
		c.since.Store(0)
		return pending, true
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	ts := now().UnixNano()
	last := c.lastLog.Load()
	if last != 0 && ts-last < c.interval.Nanoseconds() {
		return pending, false
	}
	if !c.lastLog.CompareAndSwap(last, ts) {
		return pending, false
	}
	c.since.Add(^(pending - 1))
	return pending, true
}

// Total returns every event recorded so far.
func (c *Counter) Total() uint64 {
	if c == nil {
		return 0
	}
	return c.total.Load()
}
