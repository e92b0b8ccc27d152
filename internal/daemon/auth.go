package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireToken guards an API handler with bearer-token authentication.
// An empty configured token disables the check, which is the expected
// setup for loopback-only binds.
func (s *apiServer) requireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
