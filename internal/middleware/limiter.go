package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"shopapp/internal/utils"

	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Intents that fan out to the catalog API (Strict)
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

const visitorIdleTTL = 3 * time.Minute

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client and tier.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	strict   map[string]bool
	now      func() time.Time
}

// NewRateLimiter puts the given paths on the strict tier.
func NewRateLimiter(strictPaths ...string) *RateLimiter {
	strict := make(map[string]bool, len(strictPaths))
	for _, p := range strictPaths {
		strict[p] = true
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		strict:   strict,
		now:      time.Now,
	}
}

// getVisitor retrieves or creates a rate limiter for the given key.
func (l *RateLimiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		l.visitors[key] = &visitor{limiter, l.now()}
		return limiter
	}

	v.lastSeen = l.now()
	return v.limiter
}

// Cleanup removes visitors idle for longer than ttl.
func (l *RateLimiter) Cleanup(ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > ttl {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Run prunes idle visitors every minute until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup(visitorIdleTTL)
		case <-ctx.Done():
			return
		}
	}
}

// Middleware checks if the request is allowed by the rate limiter.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := l.resolveRateTier(r)

		key := fmt.Sprintf("%s:%s", identity(r), tier)
		if !l.getVisitor(key, limit, burst).Allow() {
			utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	if r.Method == http.MethodPost && l.strict[r.URL.Path] {
		return limitStrict, burstStrict, "strict"
	}
	return limitGeneral, burstGeneral, "general"
}

func identity(r *http.Request) string {
	if clientID, ok := utils.GetClientIDFromContext(r.Context()); ok {
		return "client:" + clientID
	}
	if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
		return "device:" + deviceID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
