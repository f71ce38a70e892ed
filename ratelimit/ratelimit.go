// Package ratelimit deduplicates identical log messages seen within a
// rolling window, so a stuck peer retrying the same frame every tick
// doesn't flood the log.
package ratelimit

import "time"

// Interval is the minimum gap between two emissions of the same message.
const Interval = 5 * time.Second

// ClearThreshold is the number of distinct messages tracked before the
// whole table is cleared in bulk.
const ClearThreshold = 100

// Limiter tracks the last-emitted time for each distinct message.
type Limiter struct {
	now  func() time.Time
	seen map[string]time.Time
}

// New returns a Limiter using now to read the current time; pass
// time.Now in production, or an injected clock in tests.
func New(now func() time.Time) *Limiter {
	return &Limiter{now: now, seen: make(map[string]time.Time)}
}

// Allow reports whether message should be emitted now: true the first time
// a message is seen, or once Interval has elapsed since it was last
// allowed; false if it was allowed more recently than that.
func (l *Limiter) Allow(message string) bool {
	if len(l.seen) >= ClearThreshold {
		l.seen = make(map[string]time.Time)
	}

	now := l.now()
	if last, ok := l.seen[message]; ok && now.Sub(last) < Interval {
		return false
	}
	l.seen[message] = now
	return true
}
