package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// visitor tracks a sliding-window counter: the count of the current fixed
// window plus the count of the one before it.
type visitor struct {
	windowStart time.Time
	prev        int
	curr        int
	lastSeen    time.Time
}

// RateLimiter caps requests per client address using a sliding-window
// counter. The previous window's count is weighted by how much of it still
// overlaps the trailing window.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow records one request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{windowStart: now}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	if elapsed := now.Sub(v.windowStart); elapsed >= rl.window {
		windows := elapsed / rl.window
		if windows == 1 {
			v.prev = v.curr
		} else {
			v.prev = 0
		}
		v.curr = 0
		v.windowStart = v.windowStart.Add(windows * rl.window)
	}

	overlap := 1 - float64(now.Sub(v.windowStart))/float64(rl.window)
	estimate := float64(v.prev)*overlap + float64(v.curr)
	if estimate >= float64(rl.limit) {
		return false
	}

	v.curr++
	return true
}

// Sweep forgets visitors idle for more than two windows.
func (rl *RateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > 2*rl.window {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(ClientAddr(r)) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientAddr returns the host part of the request's remote address. Run
// chi's RealIP first when sitting behind a proxy.
func ClientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
