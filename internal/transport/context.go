package transport

import (
	"context"

	"storefront-core/internal/storefront"
)

type ctxKey string

const userSessionKey ctxKey = "userSession"

func WithSession(ctx context.Context, us *storefront.UserSession) context.Context {
	return context.WithValue(ctx, userSessionKey, us)
}

func SessionFrom(ctx context.Context) *storefront.UserSession {
	us, _ := ctx.Value(userSessionKey).(*storefront.UserSession)
	return us
}
