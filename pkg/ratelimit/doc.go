// Package ratelimit paces requests to the search APIs.
//
// SlidingWindow tracks request times inside a moving window and makes Wait
// block until the oldest request falls out of it. Wait honors context
// cancellation, so an interrupted run stops pacing immediately.
//
// Usage:
//
//	limiter := ratelimit.PerMinute(60)
//
//	if _, err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	// Proceed with request
package ratelimit
