package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
)

// Identity is the caller as far as rate limiting is concerned.
type Identity struct {
	UserID  uint
	IsAdmin bool
}

// IdentifyFunc returns the caller of a request, or nil for anonymous callers.
type IdentifyFunc func(c *gin.Context) *Identity

// OverrideFunc returns a runtime budget for authenticated users, if one is set.
type OverrideFunc func(ctx context.Context) (int, bool)

// Limiter counts requests in fixed windows. Authenticated callers are counted per user id,
// anonymous callers per client IP.
type Limiter struct {
	cfg      *config.RateLimitConfig
	counters *gocache.Cache
	identify IdentifyFunc
	override OverrideFunc
}

func New(cfg *config.RateLimitConfig, identify IdentifyFunc, override OverrideFunc) *Limiter {
	return &Limiter{
		cfg:      cfg,
		counters: gocache.New(cfg.Window, 2*cfg.Window),
		identify: identify,
		override: override,
	}
}

// limitFor returns the bucket key and budget of the caller.
func (l *Limiter) limitFor(c *gin.Context) (string, int) {
	var id *Identity
	if l.identify != nil {
		id = l.identify(c)
	}
	switch {
	case id == nil:
		return "ip:" + c.ClientIP(), l.cfg.Anonymous
	case id.IsAdmin:
		return "user:" + strconv.FormatUint(uint64(id.UserID), 10), l.cfg.Admin
	default:
		limit := l.cfg.Authenticated
		if l.override != nil {
			if v, ok := l.override(c.Request.Context()); ok {
				limit = v
			}
		}
		return "user:" + strconv.FormatUint(uint64(id.UserID), 10), limit
	}
}

// hit increments the counter of key and returns the new count.
func (l *Limiter) hit(key string) int {
	if err := l.counters.Add(key, 1, l.cfg.Window); err == nil {
		return 1
	}
	count, err := l.counters.IncrementInt(key, 1)
	if err != nil {
		// the window expired between Add and IncrementInt
		l.counters.Set(key, 1, l.cfg.Window)
		return 1
	}
	return count
}

// Middleware rejects callers that exhausted their budget with 429.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, limit := l.limitFor(c)
		count := l.hit(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(limit-count, 0)))

		if count > limit {
			c.Header("Retry-After", strconv.Itoa(int(l.cfg.Window/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests, please try again later.",
			})
			return
		}
		c.Next()
	}
}
