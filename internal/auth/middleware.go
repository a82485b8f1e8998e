package auth

import (
	"net/http"
	"strings"

	"github.com/derHeinz/dlna-mediacontroller/internal/api"
	"github.com/derHeinz/dlna-mediacontroller/internal/apperrors"
)

// exemptPaths are reachable without a bearer token even when auth is
// enabled: health/info/openapi are operational surfaces an operator needs
// before they have a token, and the state stream is push-only read access.
var exemptPaths = map[string]bool{
	"/v1/health":        true,
	"/v1/health/live":   true,
	"/v1/health/ready":  true,
	"/info":             true,
	"/v1/openapi":       true,
	"/v1/openapi.json":  true,
	"/ws/state":         true,
}

// Middleware builds the bearer-auth gate. When enabled is false it passes
// every request through unchanged.
func Middleware(enabled bool, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				api.WriteError(w, r, apperrors.NewUnauthorizedError("missing bearer token"))
				return
			}

			if err := VerifyToken(secret, token); err != nil {
				api.WriteError(w, r, apperrors.NewUnauthorizedError("invalid bearer token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
