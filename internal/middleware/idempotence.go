package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/engagement/internal/pkg/redis"
	"github.com/mx-space/engagement/internal/pkg/response"
	goredis "github.com/redis/go-redis/v9"
)

const (
	idempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second
)

// Idempotence rejects a replayed mutating request that carries the same
// x-idempotence key as one already in flight or completed. A retried like
// would otherwise toggle twice. Requests without the header pass through.
func Idempotence(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotenceHeader)
		if rdb == nil || key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		redisKey := fmt.Sprintf("engagement:idempotence:%s:%s", CurrentUserID(c), key)
		ctx := c.Request.Context()

		acquired, err := rdb.SetNX(ctx, redisKey, "0", idempotenceTTL)
		if err != nil {
			c.Next()
			return
		}
		if !acquired {
			msg := "The same request can only be sent once within 60 seconds"
			if val, _ := rdb.Get(ctx, redisKey); val == "0" {
				msg = "The same request is still being processed"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			_ = rdb.Set(ctx, redisKey, "1", goredis.KeepTTL)
		} else {
			_ = rdb.Del(ctx, redisKey)
		}
	}
}
