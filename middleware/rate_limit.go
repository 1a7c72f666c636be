package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/commhub/reputation/config"
	"github.com/commhub/reputation/utils"
)

// visitor pairs a token bucket with the last time its IP was seen, so idle
// buckets can be dropped.
type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

func newIPLimiter(perMinute int) *ipLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	burst := perMinute / 2
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

// allow takes one token for ip, creating its bucket on first sight and
// sweeping buckets idle for over five minutes.
func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > 5*time.Minute {
			delete(l.visitors, key)
		}
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.bucket.Allow()
}

// RateLimitMiddleware throttles requests per client IP with a token bucket
// sized from the configured per-minute rate.
func RateLimitMiddleware() gin.HandlerFunc {
	limiter := newIPLimiter(config.Get().RateLimitPerMinute)
	return func(ctx *gin.Context) {
		if !limiter.allow(ctx.ClientIP()) {
			utils.Error(ctx, 429, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
