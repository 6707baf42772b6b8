package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/stefanh/training-provider-api/internal/config"
)

// fixed-window counter: INCR the window key, set its expiry on first
// hit, reject once the count exceeds the limit.
var limitScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RateLimit returns a fixed-window request limiter keyed by client IP
// and route.  When the limiter is disabled or Redis is unavailable it
// passes every request through.  Redis errors fail open: a broken
// limiter must not take the API down with it.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return limitWith(rdb, cfg.Prefix, cfg.Requests, cfg.Window)
}

// RateLimitRoute builds a per-route limiter with its own budget, used
// to throttle sensitive endpoints (register, login, refresh) more
// tightly than the global limit.
func RateLimitRoute(cfg config.RateLimitConfig, rdb *redis.Client, requests int, window time.Duration) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return limitWith(rdb, cfg.Prefix, requests, window)
}

func limitWith(rdb *redis.Client, prefix string, requests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now().UnixMilli()
			bucket := now / window.Milliseconds()
			key := fmt.Sprintf("%s:%s:%s:%d", prefix, c.RealIP(), c.Path(), bucket)

			n, err := limitScript.Run(c.Request().Context(), rdb,
				[]string{key}, window.Milliseconds()).Int64()
			if err != nil {
				return next(c)
			}
			if n > int64(requests) {
				retry := window - time.Duration(now%window.Milliseconds())*time.Millisecond
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded, try again later"})
			}
			return next(c)
		}
	}
}
