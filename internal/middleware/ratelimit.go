package middleware

// ratelimit.go implements a fixed-window request limiter backed by
// Redis.  Each client gets a per-minute budget keyed by account id on
// routes behind JWTAuth and by remote address on guest routes; the
// counter is INCRed and given a window-sized TTL on first touch.
// When Redis is unavailable the limiter degrades to a pass-through so
// the store keeps serving.

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// RateLimit returns an Echo middleware enforcing perMin requests per
// client per minute.  A nil Redis client or non-positive budget
// disables limiting entirely.
func RateLimit(rdb *redis.Client, perMin int) echo.MiddlewareFunc {
    if rdb == nil || perMin <= 0 {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := userID(c)
            if id == "guest" {
                id = c.RealIP()
            }
            key := "rl:" + id + ":" + strconv.FormatInt(time.Now().Unix()/60, 10)

            ctx := c.Request().Context()
            pipe := rdb.TxPipeline()
            count := pipe.Incr(ctx, key)
            pipe.Expire(ctx, key, time.Minute)
            if _, err := pipe.Exec(ctx); err != nil {
                // Redis trouble must not take the store down.
                return next(c)
            }
            if count.Val() > int64(perMin) {
                c.Response().Header().Set("Retry-After", "60")
                return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
            }
            return next(c)
        }
    }
}
