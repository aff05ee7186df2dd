package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireBearer rejects task-trigger calls whose bearer token does not match
// the configured secret. Rejection happens before any core logic runs.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.secret)) != 1 {
			s.writeJSON(w, r.URL.Path, http.StatusUnauthorized,
				response{Status: false, Message: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
