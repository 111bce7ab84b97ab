package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"lensfolio/api/internal/config"
)

// RateLimit throttles requests per identity and route. With Redis the
// counter is a fixed window shared across server instances; without it a
// per-process token bucket substitutes, which is only best-effort behind a
// load balancer.
func RateLimit(cfg config.RateLimitConfig, redisClient *redis.Client, log zerolog.Logger) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	var local *localLimiter
	if redisClient == nil {
		local = newLocalLimiter(cfg.Requests, cfg.Window, cfg.Burst)
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("rl:%s:%s", c.ClientIP(), c.FullPath())

		var allowed bool
		if redisClient != nil {
			var err error
			allowed, err = allowRedis(c, redisClient, key, cfg)
			if err != nil {
				// Counter store down: let traffic through rather than hard-fail.
				log.Warn().Err(err).Msg("rate limit store unavailable")
				allowed = true
			}
		} else {
			allowed = local.Allow(key)
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func allowRedis(c *gin.Context, client *redis.Client, key string, cfg config.RateLimitConfig) (bool, error) {
	count, err := client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := client.Expire(c.Request.Context(), key, cfg.Window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(cfg.Requests+cfg.Burst), nil
}

type localVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localLimiter struct {
	mu       sync.Mutex
	visitors map[string]*localVisitor
	limit    rate.Limit
	burst    int
}

func newLocalLimiter(requests int, window time.Duration, burst int) *localLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if burst <= 0 {
		burst = 1
	}
	return &localLimiter{
		visitors: make(map[string]*localVisitor),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    burst,
	}
}

func (l *localLimiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &localVisitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	// Opportunistic expiry sweep.
	for k, vis := range l.visitors {
		if now.Sub(vis.lastSeen) > 10*time.Minute {
			delete(l.visitors, k)
		}
	}
	l.mu.Unlock()

	return v.limiter.Allow()
}
