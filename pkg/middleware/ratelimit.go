package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ipLimiter tracks a rate limiter and its last access time
type ipLimiter struct {
	lastAccess time.Time
	limiter    *rate.Limiter
}

// RateLimiter limits requests per client IP with periodic cleanup of idle entries
type RateLimiter struct {
	limiters        map[string]*ipLimiter
	stopCh          chan struct{}
	logger          *zap.Logger
	rate            rate.Limit
	burst           int
	maxSize         int
	cleanupInterval time.Duration
	mu              sync.Mutex
	stopOnce        sync.Once
}

// NewRateLimiter creates a new rate limiter.
// requestsPerSecond is the steady rate per IP and burst the bucket size.
func NewRateLimiter(requestsPerSecond float64, burst int, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		limiters:        make(map[string]*ipLimiter),
		rate:            rate.Limit(requestsPerSecond),
		burst:           burst,
		maxSize:         10000,
		cleanupInterval: 5 * time.Minute,
		stopCh:          make(chan struct{}),
		logger:          logger,
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup removes entries that haven't been accessed in the last cleanup interval
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.cleanupInterval)
	removed := 0

	for ip, limiter := range rl.limiters {
		if limiter.lastAccess.Before(cutoff) {
			delete(rl.limiters, ip)
			removed++
		}
	}

	if removed > 0 {
		rl.logger.Debug("Rate limiter cleanup", zap.Int("removed", removed), zap.Int("remaining", len(rl.limiters)))
	}
}

// Shutdown stops the cleanup goroutine
func (rl *RateLimiter) Shutdown() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[ip]; exists {
		limiter.lastAccess = time.Now()
		return limiter.limiter
	}

	// Evict the least recently used entry when full
	if len(rl.limiters) >= rl.maxSize {
		var oldestIP string
		var oldestTime time.Time
		for ip, lim := range rl.limiters {
			if oldestIP == "" || lim.lastAccess.Before(oldestTime) {
				oldestIP = ip
				oldestTime = lim.lastAccess
			}
		}
		delete(rl.limiters, oldestIP)
	}

	newLimiter := &ipLimiter{
		limiter:    rate.NewLimiter(rl.rate, rl.burst),
		lastAccess: time.Now(),
	}
	rl.limiters[ip] = newLimiter

	return newLimiter.limiter
}

// Middleware returns HTTP middleware that applies rate limiting.
// Run it after chi's RealIP so RemoteAddr holds the client address.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(clientIP(r)).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"RATE_LIMITED","message":"rate limit exceeded, please try again later"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
