package auth

import (
	"net/http"
	"strings"
)

// HTTPMiddleware rejects requests to mutating routes that do not carry a
// valid Bearer token.
func HTTPMiddleware(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isProtectedRequest(r) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := bearerToken(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		claims, err := validateToken(tokenString, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// isProtectedRequest reports whether r modifies companies: every method
// other than GET and HEAD under /v1/companies.
func isProtectedRequest(r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return false
	}
	return r.URL.Path == "/v1/companies" || strings.HasPrefix(r.URL.Path, "/v1/companies/")
}
