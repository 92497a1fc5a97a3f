package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mpchat/server/internal/services"
)

type contextKey string

const userIDKey contextKey = "userID"

// requireAuth resolves the bearer credential on each request and stores the
// user id in the request context. Same resolver, and same trust model, as the
// websocket handshake.
func requireAuth(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, err := tokens.Resolve(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userIDFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userIDKey).(uuid.UUID)
	return id
}
