package middleware

import (
	"net/http"

	"github.com/fanvault/backend/internal/contextkeys"
	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/handler"
)

// RequireRole lets the request through only if the authenticated user holds
// one of roles. Must be used after Auth.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := contextkeys.UserRoleFrom(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			handler.JSON(w, http.StatusForbidden, map[string]string{"error": "forbidden: insufficient role"})
		})
	}
}

// AdminOnly ensures the user has the admin role.
func AdminOnly(next http.Handler) http.Handler {
	return RequireRole(domain.RoleAdmin)(next)
}

// ArtistOnly admits artists and admins.
func ArtistOnly(next http.Handler) http.Handler {
	return RequireRole(domain.RoleArtist, domain.RoleAdmin)(next)
}
