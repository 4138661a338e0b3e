package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/starboard-analytics/news-core/internal/pkg/response"
)

const (
	rateLimitMax    = 20
	rateLimitWindow = time.Second
)

// RateLimit returns a middleware enforcing a per-IP windowed rate limit on
// public routes. A nil Redis client disables limiting.
func RateLimit(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("news:rate_limit:%s:%d", ip, time.Now().Unix())

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Limiter failures never block traffic.
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, rateLimitWindow+time.Second)
		}
		if count > rateLimitMax {
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
