package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/pongserver/internal/api/apierr"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/services/auth"
)

// AdminKeyHeader carries the operator key
const AdminKeyHeader = "X-Admin-Key"

type contextKey string

const playerContextKey contextKey = "player"

// TokenValidator turns a bearer token into a player identity
type TokenValidator interface {
	Validate(token string) (model.PlayerID, error)
}

// Auth requires a valid bearer token and stores its player in the context
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			player, err := tokens.Validate(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), playerContextKey, player)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminKey requires the operator key. With no key configured the guarded
// routes are disabled.
func AdminKey(key *auth.AdminKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !key.Enabled() {
				apierr.WriteError(w, apierr.NewForbiddenError("Operator endpoints are disabled"))
				return
			}
			provided := r.Header.Get(AdminKeyHeader)
			if provided == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			if !key.Check(provided) {
				apierr.WriteError(w, apierr.NewForbiddenError("Invalid admin key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPlayer returns the authenticated player from the request context
func GetPlayer(ctx context.Context) (model.PlayerID, bool) {
	player, ok := ctx.Value(playerContextKey).(model.PlayerID)
	return player, ok
}

// MustGetPlayer returns the authenticated player or panics
func MustGetPlayer(ctx context.Context) model.PlayerID {
	player, ok := GetPlayer(ctx)
	if !ok {
		panic("no player in context - auth middleware not applied?")
	}
	return player
}
