package middleware

import (
	"log/slog"
	"net/http"
)

// CookieCSRF rejects state-changing requests from other origins when they
// were authenticated by the access_token cookie alone. A browser attaches
// the cookie to any cross-site form post but never an Authorization header,
// so header-authenticated requests pass through. Must run after Auth.
//
// trustedOrigins are additional origins (scheme://host[:port]) allowed to
// post with the cookie; "*" and malformed entries are ignored.
func CookieCSRF(trustedOrigins []string) func(http.Handler) http.Handler {
	cop := http.NewCrossOriginProtection()
	for _, o := range trustedOrigins {
		if o == "*" {
			continue
		}
		if err := cop.AddTrustedOrigin(o); err != nil {
			slog.Warn("ignoring trusted origin", "origin", o, "err", err)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CookieAuthenticated(r.Context()) {
				if err := cop.Check(r); err != nil {
					writeJSONError(w, http.StatusForbidden, "cross-origin request rejected")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
