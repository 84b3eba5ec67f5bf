package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/go-auth-flow/internal/infrastructure/jwt"
)

type contextKey string

const (
	claimsKey contextKey = "claims"
	tokenKey  contextKey = "token"
	cookieKey contextKey = "cookie_auth"
)

// TokenCookie carries the access token for browser form posts that cannot
// set an Authorization header.
const TokenCookie = "access_token"

// Auth returns middleware that validates the Bearer JWT (header first, then
// the access_token cookie) and injects the claims and raw token into context.
func Auth(provider *jwtinfra.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, fromCookie, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, tokenKey, tokenStr)
			ctx = context.WithValue(ctx, cookieKey, fromCookie)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken returns the access token and whether it came from the cookie.
func bearerToken(r *http.Request) (token string, fromCookie, ok bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if !strings.HasPrefix(h, "Bearer ") {
			return "", false, false
		}
		t := strings.TrimPrefix(h, "Bearer ")
		return t, false, t != ""
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value, true, true
	}
	return "", false, false
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok
}

// TokenFromContext returns the verified raw access token.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok
}

// CookieAuthenticated reports whether Auth accepted the request on the
// access_token cookie alone, without an Authorization header.
func CookieAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(cookieKey).(bool)
	return v
}

// WithClaims stores claims and token in ctx the way Auth does.
func WithClaims(ctx context.Context, claims *jwtinfra.Claims, token string) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, tokenKey, token)
}
