// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Known roles. The core never authorizes by role, it only records actors;
// the HTTP layer uses roles to gate admin-only routes.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

// UserContext contains the authenticated caller identity.
// Authentication happens at the HTTP boundary; ledger operations only
// consume the resolved identity as `actor`.
type UserContext struct {
	UserID string
	Name   string
	Role   string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// Actor returns the identity to record on ledger writes.
// Falls back to "system" for non-request contexts (seed, maintenance).
func Actor(ctx context.Context) string {
	if u := GetUser(ctx); u != nil && u.UserID != "" {
		return u.UserID
	}
	return "system"
}

// HasRole checks if the caller has the given role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	return u != nil && u.Role == role
}
