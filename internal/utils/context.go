package utils

import (
	"context"

	"storefront-core/internal/session"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "role"
	UserTokenKey contextKey = "access_token"
	ClaimsKey    contextKey = "claims"
)

// SetUserContext sets user info into context (called by middleware)
func SetUserContext(ctx context.Context, token string, claims *session.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
	ctx = context.WithValue(ctx, UserTokenKey, token)
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return ctx
}

// GetUserIDFromContext retrieves userID safely
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

func GetUserRoleFromContext(ctx context.Context) session.Role {
	role, _ := ctx.Value(UserRoleKey).(session.Role)
	return role
}

func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(UserTokenKey).(string)
	return token
}

func GetClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*session.Claims)
	return claims, ok
}
