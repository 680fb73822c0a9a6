package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/unfold/internal/logging"
)

// APIKeyAuth checks the X-API-Key header against keys when required is true.
// A missing key is 401, an unknown one 403. With required false every
// request passes.
func APIKeyAuth(required bool, keys []string) func(http.Handler) http.Handler {
	accepted := make([][]byte, len(keys))
	for i, k := range keys {
		accepted[i] = []byte(k)
	}

	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			switch {
			case key == "":
				logging.FromContext(r.Context()).Warn("auth: missing API key", "path", r.URL.Path, "ip", r.RemoteAddr)
				denyJSON(w, http.StatusUnauthorized, "missing API key", "AUTH001")
			case !keyAccepted([]byte(key), accepted):
				logging.FromContext(r.Context()).Warn("auth: invalid API key", "path", r.URL.Path, "ip", r.RemoteAddr)
				denyJSON(w, http.StatusForbidden, "invalid API key", "AUTH002")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// keyAccepted compares against every key in constant time per key so the
// response time does not reveal which key matched.
func keyAccepted(key []byte, accepted [][]byte) bool {
	match := 0
	for _, k := range accepted {
		match |= subtle.ConstantTimeCompare(key, k)
	}
	return match == 1
}

func denyJSON(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   msg,
		"message": msg,
		"code":    code,
	})
}
