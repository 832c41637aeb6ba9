package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter paces outgoing API requests
type Limiter interface {
	// Wait blocks until a request may proceed and returns how long it waited
	Wait(ctx context.Context) (time.Duration, error)
}

// SlidingWindow allows at most maxRequests within any windowSize interval
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// PerMinute creates a limiter allowing n requests per minute
func PerMinute(n int) *SlidingWindow {
	return NewSlidingWindow(n, time.Minute)
}

// Wait blocks until a request is allowed or ctx is done
func (sw *SlidingWindow) Wait(ctx context.Context) (time.Duration, error) {
	var waited time.Duration
	for {
		sw.mu.Lock()
		delay, ok := sw.reserve()
		sw.mu.Unlock()

		if ok {
			return waited, nil
		}
		if err := sw.sleep(ctx, delay); err != nil {
			return waited, err
		}
		waited += delay
	}
}

// reserve records a request if the window has room, otherwise it returns the
// time until the oldest request leaves the window. Callers hold mu.
func (sw *SlidingWindow) reserve() (time.Duration, bool) {
	now := sw.now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return 0, true
	}

	delay := sw.windowSize - now.Sub(sw.requests[0])
	if delay <= 0 {
		delay = time.Millisecond
	}
	return delay, false
}

// cleanOldRequests removes requests outside the sliding window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}

	if i > 0 {
		n := copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:n]
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Unlimited never delays a request
type Unlimited struct{}

func (Unlimited) Wait(context.Context) (time.Duration, error) { return 0, nil }
