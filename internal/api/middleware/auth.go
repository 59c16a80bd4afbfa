package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/RocketHubAI/rocket-dispatch/internal/api/dto"
)

// ServiceAuth gates the internal trigger endpoints behind a shared
// bearer token. An empty configured token disables the check, for
// local development.
func ServiceAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			presented := strings.TrimPrefix(auth, "Bearer ")
			if presented == auth || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				dto.WriteError(w, http.StatusUnauthorized, "invalid service token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
