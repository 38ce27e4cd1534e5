package httpx

import (
	"context"
	"github.com/ariefcatur/go-preorder-cart.git/internal/auth"
	"net/http"
	"strings"
)

type ctxKey int

const claimsKey ctxKey = iota

// RequireUser verifies the bearer token and stores the claims on the
// request context. Identity failures answer 401 before any handler runs.
func RequireUser(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := auth.ParseToken(secret, raw)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.UserID == "" {
				writeAuthError(w, http.StatusUnauthorized, "token carries no user")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// RequireStaff gates staff-only routes. Must be mounted inside RequireUser.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := ClaimsFrom(r.Context())
		if c == nil || c.Role != auth.RoleStaff {
			writeAuthError(w, http.StatusForbidden, "staff role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClaimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}

func userID(r *http.Request) string {
	if c := ClaimsFrom(r.Context()); c != nil {
		return c.UserID
	}
	return ""
}
