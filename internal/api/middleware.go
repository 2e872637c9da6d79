/**
 * @description
 * This file contains custom middleware for the HTTP router. The actor
 * middleware resolves the acting party for the request: a bearer token with a
 * boolean `staff` claim yields a user actor with that flag, anything else
 * yields an anonymous (non-staff) user actor. Authorization decisions are made
 * in the domain layer, not here.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: Bearer token parsing and validation.
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/paystream/payout-service/internal/domain"
)

// ActorContextKey is a custom type for the context key to avoid collisions.
type ActorContextKey string

const actorKey ActorContextKey = "actor"

// ActorMiddleware creates a middleware that resolves the request actor from an
// optional HMAC-signed bearer token. Requests without a valid token proceed as
// an anonymous non-staff user; endpoints needing privilege fail later with 403.
func ActorMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := domain.UserActor(false)

			authHeader := r.Header.Get("Authorization")
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if authHeader != "" && tokenString != authHeader && secret != "" {
				token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
					if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
					}
					return []byte(secret), nil
				})
				if err == nil && token.Valid {
					if claims, ok := token.Claims.(jwt.MapClaims); ok {
						staff, _ := claims["staff"].(bool)
						actor = domain.UserActor(staff)
					}
				}
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActor retrieves the resolved actor from the request context. Handlers
// fall back to an anonymous user when the middleware did not run.
func GetActor(ctx context.Context) domain.Actor {
	if actor, ok := ctx.Value(actorKey).(domain.Actor); ok {
		return actor
	}
	return domain.UserActor(false)
}
