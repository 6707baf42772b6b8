package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stefanh/training-provider-api/internal/model"
	"github.com/stefanh/training-provider-api/internal/utils"
)

// principalKey is the context key under which the resolved principal
// is stored for handlers.
const principalKey = "principal"

// UserSource loads a stored user by id.  *repository.UserRepo
// satisfies it.
type UserSource interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Authenticate returns an Echo middleware that validates a Bearer
// access token and resolves it to a principal.  The token only proves
// identity; roles and ad-hoc permissions are re-read from the user
// store on every request, so a role change takes effect without
// waiting for the token to expire.  Verification failure and a
// deleted subject both answer 401.
func Authenticate(secret string, users UserSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			sub, err := utils.VerifyToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, sub)
			if err != nil {
				// The subject no longer resolves to a stored user.
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(principalKey, u.Principal())
			return next(c)
		}
	}
}

// Principal returns the authenticated principal stored by
// Authenticate.  The second return is false when the request did not
// pass through the middleware.
func Principal(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}
