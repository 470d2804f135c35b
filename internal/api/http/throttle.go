package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/neos-mentors/mentor-queue/internal/config"
	apperrors "github.com/neos-mentors/mentor-queue/pkg/util"
)

// Throttle enforces a fixed-window request budget per client IP and route,
// counted in Redis. When Redis is unavailable requests pass through.
func Throttle(client *redis.Client, logger *zap.Logger, cfg config.ThrottleConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || cfg.Limit <= 0 {
			return c.Next()
		}
		key := fmt.Sprintf("throttle:%s:%s", c.Path(), c.IP())
		ctx := c.UserContext()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("throttle counter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := client.Expire(ctx, key, cfg.Window()).Err(); err != nil {
				logger.Warn("throttle expiry not set", zap.String("key", key), zap.Error(err))
			}
		}
		if count > int64(cfg.Limit) {
			return apperrors.NewDomainError("RATE_LIMITED", "too many requests", fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}
