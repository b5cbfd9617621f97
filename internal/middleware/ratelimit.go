// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// hits holds the request times of one key inside the current window,
// oldest first.
type hits struct {
	mu    sync.Mutex
	times []time.Time
}

// prune drops times at or before cutoff.
func (h *hits) prune(cutoff time.Time) {
	i := 0
	for i < len(h.times) && !h.times[i].After(cutoff) {
		i++
	}
	h.times = h.times[i:]
}

// RateLimiter allows a fixed number of events per key inside a sliding
// window. The router keys it by client IP on the sign-in endpoints and
// the sign-in handler keys a second one by email address.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	keys map[string]*hits

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter allowing limit events per window for
// each key. A background sweep drops idle keys until Stop is called.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		keys:   make(map[string]*hits),
		stop:   make(chan struct{}),
	}
	go rl.sweepLoop(max(window, time.Minute))
	return rl
}

// Stop ends the background sweep. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow records an event for key when it is within the limit. When the
// limit is reached it returns false and the time until the oldest event
// leaves the window.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	h, ok := rl.keys[key]
	if !ok {
		h = &hits{}
		rl.keys[key] = h
	}
	rl.mu.Unlock()

	now := rl.now()
	h.mu.Lock()
	defer h.mu.Unlock()

	h.prune(now.Add(-rl.window))
	if len(h.times) >= rl.limit {
		return false, h.times[0].Add(rl.window).Sub(now)
	}
	h.times = append(h.times, now)
	return true, 0
}

func (rl *RateLimiter) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// sweep forgets keys with no events left in the window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, h := range rl.keys {
		h.mu.Lock()
		h.prune(cutoff)
		idle := len(h.times) == 0
		h.mu.Unlock()
		if idle {
			delete(rl.keys, key)
		}
	}
}

// Middleware limits requests per client IP. Rejected requests get a JSON
// 429 with Retry-After in whole seconds.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ok, wait := rl.Allow(clientIP(r)); !ok {
			w.Header().Set("Retry-After", RetryAfter(wait))
			writeError(w, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RetryAfter formats a wait as a Retry-After value, rounded up to at
// least one second.
func RetryAfter(wait time.Duration) string {
	secs := int(math.Ceil(wait.Seconds()))
	return strconv.Itoa(max(secs, 1))
}

// clientIP returns the host part of RemoteAddr. Proxy headers are
// resolved into RemoteAddr earlier in the chain by chi's RealIP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
