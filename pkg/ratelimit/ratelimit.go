// Package ratelimit provides sliding-window rate limiting for handshake
// attempts, gossip sync requests, and other bursty peer-driven operations.
//
// golang.org/x/time/rate's token bucket refills continuously rather than
// resetting at a fixed boundary, so a caller cannot double a window's
// allowance by timing requests around a reset edge the way a naive
// fixed-second counter would allow.
package ratelimit

import (
	"golang.org/x/time/rate"
)

// Window is a token-bucket limiter configured to allow at most limit events
// per period, with the full burst available immediately.
type Window struct {
	limiter *rate.Limiter
}

// NewWindow builds a limiter permitting limit events per period. The bucket
// refills continuously at limit/period per second and starts full.
func NewWindow(limit int, periodSeconds float64) *Window {
	r := rate.Limit(float64(limit) / periodSeconds)
	return &Window{limiter: rate.NewLimiter(r, limit)}
}

// Allow reports whether an event may proceed now, consuming one token if so.
func (w *Window) Allow() bool {
	return w.limiter.Allow()
}
