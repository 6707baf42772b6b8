package handler // handler defines the HTTP handlers of the API

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stefanh/training-provider-api/internal/config"
)

// requestContext bounds a handler's store operations to five seconds.
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// limitParam reads the ?limit query parameter, clamped to the
// configured maximum.  Absent or malformed values fall back to the
// configured default.
func limitParam(c echo.Context, cfg config.Config) int64 {
	raw := c.QueryParam("limit")
	if raw == "" {
		return cfg.DefaultGetLimit
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return cfg.DefaultGetLimit
	}
	if n > cfg.MaxGetLimit {
		return cfg.MaxGetLimit
	}
	return n
}
