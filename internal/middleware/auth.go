package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const TokenKey contextKey = "bearer_token"

// BearerAuth extracts the caller's bearer token and stores it in the
// request context. The token is forwarded as-is to the analysis service,
// which owns the actual check. fallback is used when the header is absent;
// with an empty fallback such requests are rejected.
func BearerAuth(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := fallback
			if auth := r.Header.Get("Authorization"); auth != "" {
				// Support both "Bearer <token>" and "<token>" formats
				token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
				if token == "" {
					writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
					return
				}
			}
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}

			ctx := context.WithValue(r.Context(), TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromContext extracts the bearer token from context
func TokenFromContext(ctx context.Context) string {
	if t, ok := ctx.Value(TokenKey).(string); ok {
		return t
	}
	return ""
}
