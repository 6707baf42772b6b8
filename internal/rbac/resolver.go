// Package rbac resolves role names to permission sets and answers
// authorization queries for request principals.
package rbac

import (
	"context"

	"github.com/stefanh/training-provider-api/internal/model"
)

// RoleSource lists the stored roles.  *repository.RoleRepo satisfies it.
type RoleSource interface {
	All(ctx context.Context) ([]model.Role, error)
}

// Resolver caches the role table in memory.  Roles are seeded once at
// process start and never change afterwards, so the cache is loaded at
// construction and read without locking.
type Resolver struct {
	perms map[string]map[string]struct{} // role name -> permission set
}

// NewResolver loads every role from src and builds the lookup table.
func NewResolver(ctx context.Context, src RoleSource) (*Resolver, error) {
	roles, err := src.All(ctx)
	if err != nil {
		return nil, err
	}
	r := &Resolver{perms: make(map[string]map[string]struct{}, len(roles))}
	for _, role := range roles {
		set := make(map[string]struct{}, len(role.Permissions))
		for _, p := range role.Permissions {
			set[p] = struct{}{}
		}
		r.perms[role.Name] = set
	}
	return r, nil
}

// Resolve unions the permission sets of the named roles.  Unknown role
// names contribute nothing; they are not an error.
func (r *Resolver) Resolve(roleNames []string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, name := range roleNames {
		for p := range r.perms[name] {
			out[p] = struct{}{}
		}
	}
	return out
}

// Authorize reports whether the principal may perform an operation
// guarded by the required permission.  The wildcard grants everything;
// otherwise the permission must come from a role or from the
// principal's ad-hoc permission list.  Rejection is the caller's job:
// this is a pure predicate.
func (r *Resolver) Authorize(p model.Principal, required string) bool {
	resolved := r.Resolve(p.Roles)
	if _, ok := resolved[model.PermWildcard]; ok {
		return true
	}
	if _, ok := resolved[required]; ok {
		return true
	}
	for _, ad := range p.Permissions {
		if ad == required {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal holds the admin role or a
// wildcard permission.  Admins may read and mutate records they do
// not own.
func (r *Resolver) IsAdmin(p model.Principal) bool {
	for _, name := range p.Roles {
		if name == "admin" {
			return true
		}
	}
	resolved := r.Resolve(p.Roles)
	if _, ok := resolved[model.PermWildcard]; ok {
		return true
	}
	for _, ad := range p.Permissions {
		if ad == model.PermWildcard {
			return true
		}
	}
	return false
}
