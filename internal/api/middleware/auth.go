package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/diceduel/internal/api/apierr"
	"github.com/mcoot/diceduel/internal/services/auth"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// Auth requires a valid Bearer access token. When the auth service runs open
// every request passes through without claims.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authService.Open() {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			claims, err := authService.ValidateToken(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the Bearer token, falling back to the access_token query
// parameter for EventSource clients that cannot set headers
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}

// GetClaims returns the validated token claims, or nil when running open
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

// Subject names the authenticated adapter, or "anonymous"
func Subject(ctx context.Context) string {
	if claims := GetClaims(ctx); claims != nil && claims.Subject != "" {
		return claims.Subject
	}
	return "anonymous"
}
