package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanh/training-provider-api/internal/model"
)

type staticRoles []model.Role

func (s staticRoles) All(context.Context) ([]model.Role, error) { return s, nil }

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(context.Background(), staticRoles{
		{Name: "admin", Permissions: []string{"read", "create", "update", "delete", "read_training", "manage_booking"}},
		{Name: "user", Permissions: []string{"read_training", "manage_booking"}},
		{Name: "root", Permissions: []string{model.PermWildcard}},
	})
	require.NoError(t, err)
	return r
}

func TestResolveUnionsRoles(t *testing.T) {
	r := newTestResolver(t)

	perms := r.Resolve([]string{"user", "admin"})
	for _, want := range []string{"read", "create", "update", "delete", "read_training", "manage_booking"} {
		if _, ok := perms[want]; !ok {
			t.Errorf("union missing %q", want)
		}
	}
}

func TestResolveIgnoresUnknownRoles(t *testing.T) {
	r := newTestResolver(t)

	perms := r.Resolve([]string{"user", "ghost"})
	assert.Len(t, perms, 2)
	_, ok := perms["manage_booking"]
	assert.True(t, ok)
}

func TestAuthorize(t *testing.T) {
	r := newTestResolver(t)

	cases := []struct {
		name     string
		p        model.Principal
		required string
		want     bool
	}{
		{"role grants", model.Principal{Roles: []string{"user"}}, "manage_booking", true},
		{"role lacks", model.Principal{Roles: []string{"user"}}, "delete", false},
		{"no roles", model.Principal{}, "read_training", false},
		{"wildcard role grants anything", model.Principal{Roles: []string{"root"}}, "delete", true},
		{"ad-hoc permission grants", model.Principal{Roles: []string{"user"}, Permissions: []string{"delete"}}, "delete", true},
		{"unknown role contributes nothing", model.Principal{Roles: []string{"ghost"}}, "read_training", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.Authorize(tc.p, tc.required))
		})
	}
}

func TestIsAdmin(t *testing.T) {
	r := newTestResolver(t)

	assert.True(t, r.IsAdmin(model.Principal{Roles: []string{"admin"}}))
	assert.True(t, r.IsAdmin(model.Principal{Roles: []string{"root"}}))
	assert.True(t, r.IsAdmin(model.Principal{Roles: []string{"user"}, Permissions: []string{model.PermWildcard}}))
	assert.False(t, r.IsAdmin(model.Principal{Roles: []string{"user"}}))
}
