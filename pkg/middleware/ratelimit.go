package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter applies a token bucket per client address
type RateLimiter struct {
	logger         *zap.Logger
	limiters       map[string]*clientLimiter
	mu             sync.Mutex
	rate           rate.Limit
	burst          int
	maxSize        int
	idleTTL        time.Duration
	trustForwarded bool
	stopCh         chan struct{}
	stopOnce       sync.Once
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with the given burst per client.
// When trustForwarded is set, the first X-Forwarded-For hop identifies the client.
func NewRateLimiter(logger *zap.Logger, requestsPerSecond float64, burst int, trustForwarded bool) *RateLimiter {
	rl := &RateLimiter{
		logger:         logger,
		limiters:       make(map[string]*clientLimiter),
		rate:           rate.Limit(requestsPerSecond),
		burst:          burst,
		maxSize:        10000,
		idleTTL:        5 * time.Minute,
		trustForwarded: trustForwarded,
		stopCh:         make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			if removed := rl.evictIdle(time.Now()); removed > 0 {
				rl.logger.Debug("Rate limiter evicted idle clients", zap.Int("removed", removed))
			}
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.idleTTL)
	removed := 0
	for key, cl := range rl.limiters {
		if cl.lastAccess.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// Close stops the cleanup goroutine
func (rl *RateLimiter) Close() error {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
	return nil
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cl, ok := rl.limiters[key]; ok {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	if len(rl.limiters) >= rl.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, cl := range rl.limiters {
			if oldestKey == "" || cl.lastAccess.Before(oldest) {
				oldestKey, oldest = k, cl.lastAccess
			}
		}
		delete(rl.limiters, oldestKey)
	}

	cl := &clientLimiter{
		limiter:    rate.NewLimiter(rl.rate, rl.burst),
		lastAccess: time.Now(),
	}
	rl.limiters[key] = cl
	return cl.limiter
}

func (rl *RateLimiter) clientKey(r *http.Request) string {
	if rl.trustForwarded {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			return strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware returns HTTP middleware that applies rate limiting
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.clientKey(r)
		if !rl.limiterFor(key).Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
