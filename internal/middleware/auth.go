package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fanvault/backend/internal/contextkeys"
	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/handler"
)

// TokenVerifier validates session tokens. *service.AuthService satisfies it.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*domain.JWTClaims, error)
}

// Auth creates a JWT authentication middleware that rejects anonymous
// requests.
func Auth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return authenticate(verifier, false)
}

// OptionalAuth authenticates the request when an Authorization header is
// present and lets anonymous requests through. A malformed or expired
// token is still rejected.
func OptionalAuth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return authenticate(verifier, true)
}

func authenticate(verifier TokenVerifier, optional bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if optional {
					next.ServeHTTP(w, r)
					return
				}
				handler.JSON(w, http.StatusUnauthorized, map[string]string{"error": "no token provided"})
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handler.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization header"})
				return
			}

			claims, err := verifier.VerifyToken(parts[1])
			if err != nil {
				handler.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
				return
			}

			ctx := context.WithValue(r.Context(), contextkeys.UserID, claims.Sub)
			ctx = context.WithValue(ctx, contextkeys.UserEmail, claims.Email)
			ctx = context.WithValue(ctx, contextkeys.UserRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
