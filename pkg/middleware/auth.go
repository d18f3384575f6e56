package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/orgdex/orgdex/pkg/httputil"
	"github.com/orgdex/orgdex/pkg/observability"
)

// TokenResolver maps an API token to a user ID. An unknown token resolves to
// the empty string without error.
type TokenResolver interface {
	LookupUserByToken(ctx context.Context, token string) (string, error)
}

// AuthMiddleware resolves Bearer tokens to user IDs. The resolved ID is
// placed in the request context for the handlers and the logger.
type AuthMiddleware struct {
	resolver TokenResolver
	optional bool
}

// NewAuthMiddleware creates the authentication middleware. With optional set,
// requests without a token pass through unauthenticated; handlers still
// reject them where identity is required.
func NewAuthMiddleware(resolver TokenResolver, optional bool) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, optional: optional}
}

// Handler wraps an HTTP handler with token authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		userID, err := m.resolver.LookupUserByToken(r.Context(), parts[1])
		if err != nil {
			observability.FromContext(r.Context()).WithError(err).Error("token lookup failed")
			httputil.WriteInternalError(w, err)
			return
		}
		if userID == "" {
			httputil.WriteUnauthorized(w, "invalid token")
			return
		}

		ctx := observability.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
