package realtime

import (
	"sync"
	"time"
)

// WindowLimiter allows up to max hits per key in each fixed window. It mirrors
// the fixed window used by the HTTP limiter so both send paths throttle alike.
type WindowLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	buckets map[uint]windowBucket
	now     func() time.Time
}

type windowBucket struct {
	hits    int
	resetAt time.Time
}

// NewWindowLimiter returns a limiter; non-positive max disables limiting.
func NewWindowLimiter(max int, window time.Duration) *WindowLimiter {
	if window <= 0 {
		window = time.Second
	}
	return &WindowLimiter{
		max:     max,
		window:  window,
		buckets: make(map[uint]windowBucket),
		now:     time.Now,
	}
}

// Allow records a hit for key and reports whether it fits in the current window.
func (l *WindowLimiter) Allow(key uint) bool {
	if l == nil || l.max <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.buckets[key]
	if !ok || !now.Before(bucket.resetAt) {
		l.sweep(now)
		bucket = windowBucket{resetAt: now.Add(l.window)}
	}
	if bucket.hits >= l.max {
		l.buckets[key] = bucket
		return false
	}
	bucket.hits++
	l.buckets[key] = bucket
	return true
}

// sweep drops expired buckets. Callers hold mu.
func (l *WindowLimiter) sweep(now time.Time) {
	for key, bucket := range l.buckets {
		if !now.Before(bucket.resetAt) {
			delete(l.buckets, key)
		}
	}
}
