// Package authmw provides HTTP middleware for bearer token authentication
// on the mutating admin endpoints.
package authmw

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const scheme = "Bearer "

// BearerToken returns middleware that requires an Authorization header with a
// Bearer token matching the expected value. Comparison uses constant-time
// equality to prevent timing side-channel attacks.
func BearerToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, scheme) {
				reject(w, `{"error":"missing or malformed authorization header"}`)
				return
			}

			got := []byte(strings.TrimPrefix(auth, scheme))
			if subtle.ConstantTimeCompare(got, expected) != 1 {
				reject(w, `{"error":"invalid token"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(body + "\n"))
}
