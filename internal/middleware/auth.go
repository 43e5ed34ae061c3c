package middleware

import (
	"net/http"

	"storefront-core/internal/apierr"
	"storefront-core/internal/auth"
	"storefront-core/internal/logger"
	"storefront-core/internal/session"
	"storefront-core/internal/utils"

	"go.uber.org/zap"
)

// AuthMiddleware attaches the caller's claims to the request context. Requests
// without a token pass through anonymously; a token that does not parse is
// refused so the UI learns its session is gone.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := session.ParseClaims(tokenStr, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Info("access token rejected",
					zap.String("layer", "middleware"),
					zap.String("method", "AuthMiddleware"),
					zap.Error(err),
				)
				utils.WriteError(w, apierr.Wrap(apierr.KindUnauthenticated, "auth", err))
				return
			}

			ctx := utils.SetUserContext(r.Context(), tokenStr, claims)
			ctx = logger.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
