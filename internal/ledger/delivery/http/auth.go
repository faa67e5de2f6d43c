package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/tair/stock-ledger/pkg/auth"
	"github.com/tair/stock-ledger/pkg/logger"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ActorMiddleware resolves the acting identity for the request. A valid
// Bearer token wins; the X-Actor header is the fallback for clients that
// are not behind the identity provider.
func ActorMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ""

			authHeader := r.Header.Get("Authorization")
			if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
				claims, err := auth.ValidateToken(parts[1])
				if err == nil {
					actor = claims.Username
				} else {
					logger.Warn(r.Context()).Err(err).Msg("Invalid bearer token")
				}
			}
			if actor == "" {
				actor = r.Header.Get("X-Actor")
			}

			if actor != "" {
				ctx := context.WithValue(r.Context(), actorContextKey, actor)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actorFromContext returns the authenticated actor, or empty
func actorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorContextKey).(string); ok {
		return actor
	}
	return ""
}
