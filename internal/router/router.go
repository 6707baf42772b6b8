package router // package router defines how HTTP routes are registered for the API

import (
	"time"

	"github.com/labstack/echo/v4"                        // the Echo web framework that handles routing
	echomw "github.com/labstack/echo/v4/middleware"      // Echo's built-in middleware (recovery, CORS)
	"github.com/redis/go-redis/v9"                       // Redis client used by the rate limiter and cache
	"github.com/stefanh/training-provider-api/internal/config"
	"github.com/stefanh/training-provider-api/internal/handler"
	"github.com/stefanh/training-provider-api/internal/middleware"
	"github.com/stefanh/training-provider-api/internal/model"
	"github.com/stefanh/training-provider-api/internal/rbac"
	"github.com/stefanh/training-provider-api/internal/repository"
)

// New builds the Echo instance with the global middleware chain applied:
// panic recovery, permissive CORS and the Redis-backed request rate
// limiter.  The limiter degrades to a no-op when rdb is nil.
func New(rl config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RateLimit(rl, rdb))
	return e
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers and
// monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints and the
// authenticated account-management endpoints.  Unauthenticated
// operations live under /v1/auth; login and register carry tighter
// per-route rate limits than the global one because they are the
// endpoints brute-force traffic aims at.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, users *repository.UserRepo, res *rbac.Resolver, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	// Registration and both login shapes: /login accepts form fields,
	// /token accepts a JSON body.  Both issue the same token pair.
	g.POST("/register", a.Register, middleware.RateLimitRoute(rl, rdb, 5, time.Minute))
	g.POST("/login", a.Login, middleware.RateLimitRoute(rl, rdb, 10, time.Minute))
	g.POST("/token", a.Login, middleware.RateLimitRoute(rl, rdb, 10, time.Minute))
	// refresh-token trades a valid, unrevoked refresh token for a
	// fresh access token.
	g.POST("/refresh-token", a.Refresh)

	// Account operations that require a valid access token.  Logout
	// lives here: only an authenticated session may revoke a refresh
	// token.
	auth := e.Group("/v1/auth", middleware.Authenticate(a.Cfg.SecretKey, users))
	auth.POST("/logout", a.Logout)
	auth.PUT("/change-password", a.ChangePassword)
	// Listing users is an administrative view gated on the base read
	// permission.
	auth.GET("/users", a.ListUsers, middleware.RequirePermission(res, model.PermRead))
}

// RegisterTrainings registers the training catalogue endpoints.  Reads
// are public and cached; mutations require an authenticated caller
// holding the matching CRUD permission.
func RegisterTrainings(e *echo.Echo, t *handler.TrainingHandler, d *handler.TrainingDateHandler, users *repository.UserRepo, res *rbac.Resolver, cache config.CacheConfig, rdb *redis.Client) {
	// Public browse endpoints.  GET responses are served from the Redis
	// cache when a fresh copy exists.
	e.GET("/v1/trainings", t.List, middleware.CacheGET(cache, rdb))
	e.GET("/v1/trainings/time-period", t.ByTimePeriod, middleware.CacheGET(cache, rdb))
	e.GET("/v1/training-dates", d.List, middleware.CacheGET(cache, rdb))

	auth := e.Group("/v1", middleware.Authenticate(t.Cfg.SecretKey, users))
	auth.POST("/trainings", t.Create, middleware.RequirePermission(res, model.PermCreate))
	auth.PUT("/trainings", t.Update, middleware.RequirePermission(res, model.PermUpdate))
	auth.DELETE("/trainings/:id", t.Delete, middleware.RequirePermission(res, model.PermDelete))

	auth.POST("/training-dates", d.Create, middleware.RequirePermission(res, model.PermCreate))
	auth.PUT("/training-dates", d.Update, middleware.RequirePermission(res, model.PermUpdate))
	auth.DELETE("/training-dates/:id", d.Delete, middleware.RequirePermission(res, model.PermDelete))
}

// RegisterBookings registers the booking endpoints.  Every operation,
// reads included, requires authentication plus the manage_booking
// permission; the handler itself narrows non-admin callers to their
// own bookings.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, users *repository.UserRepo, res *rbac.Resolver) {
	auth := e.Group("/v1", middleware.Authenticate(b.Cfg.SecretKey, users))
	auth.GET("/bookings", b.List, middleware.RequirePermission(res, model.PermManageBooking))
	auth.POST("/bookings", b.Create, middleware.RequirePermission(res, model.PermManageBooking))
	auth.PUT("/bookings", b.Update, middleware.RequirePermission(res, model.PermManageBooking))
	auth.DELETE("/bookings/:id", b.Delete, middleware.RequirePermission(res, model.PermManageBooking))
}
