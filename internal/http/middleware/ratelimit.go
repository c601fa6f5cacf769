package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/learnpulse/learnpulse-backend/internal/observability"
	"github.com/learnpulse/learnpulse-backend/internal/platform/ctxutil"
)

const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter keeps one token bucket per authenticated user.
type UserRateLimiter struct {
	mu      sync.Mutex
	perSec  rate.Limit
	burst   int
	users   map[uuid.UUID]*userLimiter
	now     func() time.Time
	lastGC  time.Time
	metrics *observability.Metrics
}

func NewUserRateLimiter(perSecond float64, burst int, m *observability.Metrics) *UserRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &UserRateLimiter{
		perSec:  rate.Limit(perSecond),
		burst:   burst,
		users:   make(map[uuid.UUID]*userLimiter),
		now:     time.Now,
		metrics: m,
	}
}

func (l *UserRateLimiter) allow(userID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastGC) > limiterIdleTTL {
		for id, ul := range l.users {
			if now.Sub(ul.lastSeen) > limiterIdleTTL {
				delete(l.users, id)
			}
		}
		l.lastGC = now
	}
	ul, ok := l.users[userID]
	if !ok {
		ul = &userLimiter{lim: rate.NewLimiter(l.perSec, l.burst)}
		l.users[userID] = ul
	}
	ul.lastSeen = now
	return ul.lim.AllowN(now, 1)
}

// Middleware must run after RequireAuth. A non-positive rate disables it.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.perSec <= 0 {
			c.Next()
			return
		}
		userID := ctxutil.UserID(c.Request.Context())
		if userID != uuid.Nil && !l.allow(userID) {
			l.metrics.IncRateLimited()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "too many playback events", "code": "rate_limited"},
			})
			return
		}
		c.Next()
	}
}
