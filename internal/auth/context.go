package auth

import (
	"context"

	"github.com/crm-argus/argus-api/internal/domain"
)

// UserContext holds the identity a request runs as
type UserContext struct {
	UserID   int64
	Username string
	Role     domain.UserRole
	// Anonymous is set when authentication is disabled
	Anonymous bool
}

type contextKey string

const userContextKey contextKey = "userContext"

// AnonymousUser is used for every request while authentication is disabled
var AnonymousUser = &UserContext{Username: "anonymous", Role: domain.UserRoleAdmin, Anonymous: true}

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// IsAdmin reports whether the user may manage users
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.UserRoleAdmin
}
