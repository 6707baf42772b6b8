package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stefanh/training-provider-api/internal/model"
)

// Authorizer answers whether a principal holds a permission.
// *rbac.Resolver satisfies it.
type Authorizer interface {
	Authorize(p model.Principal, required string) bool
}

// RequirePermission returns a middleware that rejects requests whose
// principal lacks the required permission.  It assumes Authenticate
// ran earlier in the chain; a missing principal answers 401.  The
// permission check happens before any handler logic, so an
// unauthorized caller cannot learn whether a record exists.
func RequirePermission(auth Authorizer, required string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			if !auth.Authorize(p, required) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
			}
			return next(c)
		}
	}
}
