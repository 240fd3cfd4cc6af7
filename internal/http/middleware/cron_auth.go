package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// CronAuth protects scheduler-triggered endpoints. A request passes with
// either a matching bearer secret or an explicit manual=true query flag for
// operator-initiated runs. With no secret configured every request is
// rejected, including manual ones.
func CronAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "cron auth disabled", http.StatusUnauthorized)
				return
			}
			if r.URL.Query().Get("manual") == "true" {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				http.Error(w, "invalid secret", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
