package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

// Realm is sent in the WWW-Authenticate challenge. Remote clients use the
// challenge to tell a channel auth rejection apart from a handler 401.
const Realm = "bank-ledger"

// BasicAuth admits requests carrying the channel credentials. An empty
// channelID or channelKey rejects everything.
func BasicAuth(channelID, channelKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fields := logger.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"requestId": RequestIDFrom(r),
			}

			if channelID == "" || channelKey == "" {
				logger.Error("basic auth middleware missing channel credentials", nil, fields)
				writeError(w, http.StatusInternalServerError, "server auth configuration is missing")
				return
			}

			id, key, ok := r.BasicAuth()
			if !ok || !secureEqual(id, channelID) || !secureEqual(key, channelKey) {
				fields["credentials"] = "invalid_or_missing"
				logger.Info("basic auth middleware unauthorized request", fields)
				w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(commons.ErrorResponse[any](message))
}
