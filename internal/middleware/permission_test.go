package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stefanh/training-provider-api/internal/model"
)

// grantOnly authorizes exactly one permission name.
type grantOnly string

func (g grantOnly) Authorize(_ model.Principal, required string) bool {
	return required == string(g)
}

func runGuard(t *testing.T, guard echo.MiddlewareFunc, principal *model.Principal) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		c.Set(principalKey, *principal)
	}
	h := guard(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRequirePermissionAllows(t *testing.T) {
	guard := RequirePermission(grantOnly("manage_booking"), "manage_booking")
	rec := runGuard(t, guard, &model.Principal{ID: "u1", Roles: []string{"user"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequirePermissionDenies(t *testing.T) {
	guard := RequirePermission(grantOnly("manage_booking"), "delete")
	rec := runGuard(t, guard, &model.Principal{ID: "u1", Roles: []string{"user"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequirePermissionWithoutPrincipal(t *testing.T) {
	guard := RequirePermission(grantOnly("manage_booking"), "manage_booking")
	rec := runGuard(t, guard, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
