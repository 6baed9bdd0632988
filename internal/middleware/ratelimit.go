package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/logging"
)

// RateLimit is a fixed-window counter per client IP and route, backed by
// redis INCR/EXPIRE. A nil client disables the limit entirely, and redis
// outages fail open.
func RateLimit(rdb *redis.Client, max int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rdb == nil || max <= 0 {
				return next(c)
			}
			ctx := c.Request().Context()
			key := fmt.Sprintf("ratelimit:%s:%s", c.RealIP(), c.Path())

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				logging.FromContext(ctx).Warn("ratelimit_unavailable", "error", err)
				return next(c)
			}
			if count == 1 {
				rdb.Expire(ctx, key, window)
			}
			if count > int64(max) {
				return &apperr.Error{
					Status:  http.StatusTooManyRequests,
					Code:    apperr.CodeValidation,
					Message: "too many requests, try again later",
				}
			}
			return next(c)
		}
	}
}
