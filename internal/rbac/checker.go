package rbac

import (
	"context"
	"strings"
)

type Checker struct {
	RolePermissions map[string][]Permission
}

func NewChecker(rp map[string][]Permission) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role string, perm Permission) bool {
	for _, granted := range c.RolePermissions[role] {
		if granted.covers(perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...Permission) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

func (p Permission) covers(want Permission) bool {
	if p == "*" || p == want {
		return true
	}
	prefix, ok := strings.CutSuffix(string(p), "*")
	return ok && strings.HasPrefix(string(want), prefix)
}

type roleKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
