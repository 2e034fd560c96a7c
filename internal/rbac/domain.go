package rbac

import (
	"context"
	"errors"
)

// Access levels mirrored from the users table.
const (
	LevelAdmin = "admin"
	LevelUser  = "user"
)

// ErrNotFound indicates that the session user no longer exists.
var ErrNotFound = errors.New("rbac: user not found")

// Principal describes the authenticated actor of a request.
type Principal struct {
	UserID      int64
	AccessLevel string
	Active      bool
}

// IsAdmin reports whether the principal holds the admin access level.
func (p Principal) IsAdmin() bool {
	return p.Active && p.AccessLevel == LevelAdmin
}

type principalContextKey struct{}

// ContextWithPrincipal caches the resolved principal for the rest of the request.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the cached principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
