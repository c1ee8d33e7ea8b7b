package middleware

import (
	"crypto/subtle"
	"net/http"
)

const AdminTokenHeader = "X-Admin-Token"

// AdminToken guards operator endpoints with a shared token in X-Admin-Token.
// An empty token leaves the endpoints open.
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(AdminTokenHeader)), []byte(token)) != 1 {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Admin token required", r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
