// Package auth holds the HTTP middleware chain: request identity, CORS,
// request IDs, and rate limiting.
package auth

import (
	"net/http"
	"strings"

	"github.com/syncboard/syncboard/pkg/api"
	"github.com/syncboard/syncboard/pkg/identity"
)

// publicPaths are endpoints that do not require authentication. The stream
// endpoint is deliberately open: connections carry no identity and every
// notification goes to every connected client.
var publicPaths = []string{
	"/health",
	"/readiness",
	"/api/users/login",
	"/api/users",
	"/api/stream",
}

// isPublicPath checks if the path should be accessible without auth.
func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// NewMiddleware creates JWT auth middleware. Requests to non-public paths
// must carry a valid Bearer token; the verified Principal is injected into
// the request context. If tokens is nil, all non-public requests are
// rejected (fail closed).
func NewMiddleware(tokens *identity.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.WriteUnauthorized(w, "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				api.WriteUnauthorized(w, "Invalid Authorization header format (expected 'Bearer <token>')")
				return
			}

			if tokens == nil {
				api.WriteUnauthorized(w, "Authentication not configured")
				return
			}

			principal, err := tokens.Verify(parts[1])
			if err != nil {
				api.WriteUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := identity.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
