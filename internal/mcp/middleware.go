package mcp

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/flanksource/commons/logger"
)

// APIKeyMiddleware rejects requests that do not carry apiKey in X-API-Key,
// an Authorization bearer token or the api_key query parameter
func APIKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	want := []byte(apiKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(providedKey(r)), want) != 1 {
			logger.Debugf("rejected %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func providedKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return token
	}
	return r.URL.Query().Get("api_key")
}
