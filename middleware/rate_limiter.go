package middleware

import (
	"net/http"
	"sync"
	"time"

	"tradocs/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultRequestsPerMin = 200
	// limiterIdleTTL is how long an idle client's bucket is kept. A bucket
	// idle this long has refilled, so dropping it loses no state.
	limiterIdleTTL = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds one token bucket per client IP.
type rateLimiterStore struct {
	limiters  map[string]*clientLimiter
	mu        sync.Mutex
	perMin    int
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiterStore(perMin int) *rateLimiterStore {
	return &rateLimiterStore{limiters: make(map[string]*clientLimiter), perMin: perMin, now: time.Now}
}

func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= limiterIdleTTL {
		s.sweep(now)
	}
	entry, exists := s.limiters[ip]
	if !exists {
		// perMin requests per minute, bursting up to a full minute's allowance.
		entry = &clientLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)}
		s.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops idle buckets. Callers hold mu.
func (s *rateLimiterStore) sweep(now time.Time) {
	for ip, entry := range s.limiters {
		if now.Sub(entry.lastSeen) >= limiterIdleTTL {
			delete(s.limiters, ip)
		}
	}
	s.lastSweep = now
}

// RateLimitMiddleware limits requests per client IP to perMin a minute.
func RateLimitMiddleware(perMin int) gin.HandlerFunc {
	if perMin <= 0 {
		perMin = defaultRequestsPerMin
	}
	store := newRateLimiterStore(perMin)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !store.getLimiter(ip).Allow() {
			utils.GetLogger().Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.ErrorResponse{Message: "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
