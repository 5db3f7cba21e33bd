package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// BasicAuth guards admin endpoints with a single credential pair loaded at
// startup. Comparison is constant-time so the check does not leak credential
// length or prefix through response timing.
func BasicAuth(username, password string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !equalConstantTime(user, username) || !equalConstantTime(pass, password) {
			slog.WarnContext(r.Context(), "basic auth rejected", "path", r.URL.Path)
			w.Header().Set("WWW-Authenticate", `Basic realm="restricted"`)
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func equalConstantTime(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
