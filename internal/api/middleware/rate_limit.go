package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/response"
)

const rateLimitTimeout = 500 * time.Millisecond

// RateLimit 基于 Redis 的按用户固定窗口限流，Redis 不可用时放行
func RateLimit(rdb *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%d", scope, userID)
		count, err := incrWindow(c.Request.Context(), rdb, key, window)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"key":        key,
				"request_id": GetRequestID(c),
			}).WithError(err).Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		if count > int64(limit) {
			logger.WithFields(logrus.Fields{
				"user_id":    userID,
				"scope":      scope,
				"request_id": GetRequestID(c),
			}).Warn("rate limit exceeded")
			response.RateLimitError(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}

// incrWindow 计数加一，窗口内第一次请求设置过期时间
func incrWindow(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, rateLimitTimeout)
	defer cancel()

	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}
