package web

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// rateLimiter allows limit requests per client IP in each fixed window.
// Windows start at a client's first request, not on a global tick.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*window

	done     chan struct{}
	stopOnce sync.Once
}

type window struct {
	start time.Time
	used  int
}

// newRateLimiter creates a rate limiter owned by the server. Close stops its
// cleanup goroutine.
func (s *Server) newRateLimiter(limit int, per time.Duration) *rateLimiter {
	rl := &rateLimiter{
		limit:   limit,
		window:  per,
		now:     time.Now,
		clients: make(map[string]*window),
		done:    make(chan struct{}),
	}
	s.rateLimiters = append(s.rateLimiters, rl)
	go rl.cleanupLoop(time.Minute)
	return rl
}

// take counts a request from ip. When the window is used up it returns false
// and how long until the window resets.
func (rl *rateLimiter) take(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.clients[ip] = &window{start: now, used: 1}
		return true, 0
	}
	if w.used >= rl.limit {
		return false, rl.window - now.Sub(w.start)
	}
	w.used++
	return true, 0
}

// prune drops clients whose window ended more than one window ago.
func (rl *rateLimiter) prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for ip, w := range rl.clients {
		if now.Sub(w.start) > 2*rl.window {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

func (rl *rateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// middleware rejects requests over the limit with 429 and a Retry-After
// header in whole seconds. RemoteAddr has already been rewritten by
// TrustedRealIP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(clientIP(r))
		if !ok {
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
