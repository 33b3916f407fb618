package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/engagement/internal/pkg/redis"
	"github.com/mx-space/engagement/internal/pkg/response"
	"go.uber.org/zap"
)

// RateLimitConfig bounds requests per client identity per window.
type RateLimitConfig struct {
	Max    int64
	Window time.Duration
}

var DefaultRateLimit = RateLimitConfig{Max: 50, Window: time.Second}

// RateLimit enforces a fixed-window limit for anonymous callers. Redis
// failures let the request through.
func RateLimit(rdb *redis.Client, cfg RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	if cfg.Max <= 0 {
		cfg = DefaultRateLimit
	}
	return func(c *gin.Context) {
		if rdb == nil || IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := CurrentClientIdentity(c)
		if ip == "" {
			c.Next()
			return
		}

		window := time.Now().UnixNano() / int64(cfg.Window)
		key := fmt.Sprintf("engagement:rate_limit:%s:%d", ip, window)

		count, err := rdb.IncrWindow(c.Request.Context(), key, cfg.Window+time.Second)
		if err != nil {
			log.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		if count > cfg.Max {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())+1))
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
