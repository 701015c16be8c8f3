package middlewares

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one bucket per key for a single middleware instance.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	r        rate.Limit
	b        int
}

var (
	storesMu sync.Mutex
	stores   []*limiterStore
)

func newLimiterStore(r rate.Limit, b int) *limiterStore {
	s := &limiterStore{limiters: make(map[string]*keyedLimiter), r: r, b: b}

	storesMu.Lock()
	stores = append(stores, s)
	storesMu.Unlock()

	return s
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.limiters[key]
	if !exists {
		entry = &keyedLimiter{limiter: rate.NewLimiter(s.r, s.b)}
		s.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (s *limiterStore) prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(s.limiters, key)
			removed++
		}
	}
	return removed
}

// PruneLimiters drops buckets idle for more than ten minutes across every
// rate limit middleware and returns how many were removed. The scheduler
// calls it periodically.
func PruneLimiters(now time.Time) int {
	storesMu.Lock()
	defer storesMu.Unlock()

	removed := 0
	for _, s := range stores {
		removed += s.prune(now)
	}
	return removed
}

func RateLimitMiddleware(r rate.Limit, b int, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	store := newLimiterStore(r, b)

	return func(c *gin.Context) {
		limiter := store.get(keyFunc(c))

		if !limiter.Allow() {
			c.AbortWithStatusJSON(429, gin.H{"error": "Too many requests. Please slow down."})
			return
		}

		c.Next()
	}
}
