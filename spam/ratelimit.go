package spam

import (
	"sync"
	"time"

	"github.com/marcelsud/lead-relay/internal/clock"
)

const (
	DefaultRateLimit  = 5
	DefaultRateWindow = 15 * time.Minute

	// sweepThreshold bounds the map before expired windows are evicted.
	sweepThreshold = 10000
)

// Decision captures the result of a rate limit check.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"reset_at"`
}

// RateLimiter is a fixed window counter keyed by client IP.
//
// A window opens with the first request of a key and is discarded wholesale
// once it is older than the window length. State lives in process memory, so
// it is advisory: it resets on restart and is not shared between instances.
type RateLimiter struct {
	clock   clock.Clock
	limit   int
	window  time.Duration
	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration, c clock.Clock) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{
		clock:   c,
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
	}
}

// Check counts a request for ip and reports whether it is allowed.
func (rl *RateLimiter) Check(ip string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	if len(rl.entries) > sweepThreshold {
		rl.sweep(now)
	}

	e, ok := rl.entries[ip]
	if !ok || now.Sub(e.windowStart) > rl.window {
		e = &windowEntry{windowStart: now}
		rl.entries[ip] = e
	}
	resetAt := e.windowStart.Add(rl.window)

	if e.count >= rl.limit {
		return Decision{
			Allowed:   false,
			Remaining: 0,
			Limit:     rl.limit,
			ResetAt:   resetAt,
		}
	}

	e.count++
	return Decision{
		Allowed:   true,
		Remaining: rl.limit - e.count,
		Limit:     rl.limit,
		ResetAt:   resetAt,
	}
}

// sweep drops expired windows. Must be called with rl.mu held.
func (rl *RateLimiter) sweep(now time.Time) {
	for ip, e := range rl.entries {
		if now.Sub(e.windowStart) > rl.window {
			delete(rl.entries, ip)
		}
	}
}
