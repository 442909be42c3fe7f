package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-grocery/models"
	"go-grocery/utils"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

func unauthorized(w http.ResponseWriter, message string) {
	utils.WriteError(w, http.StatusUnauthorized, utils.ErrorBody{Error: "Unauthorized", Message: message})
}

// AuthMiddleware verifies JWT tokens and attaches the claims to the context
func AuthMiddleware(tokens *utils.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Authorization header missing")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "Invalid Authorization header format")
				return
			}

			claims, err := tokens.ParseJWT(parts[1])
			if err != nil {
				unauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware ensures that the user has admin privileges. It must
// run after AuthMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || claims.Role != string(models.RoleAdmin) {
			utils.WriteError(w, http.StatusForbidden, utils.ErrorBody{Error: "Forbidden", Message: "Admins only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFrom returns the claims attached by AuthMiddleware.
func ClaimsFrom(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	return claims, ok
}
