// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/quailscout/standsync/pkg/metrics"
)

// APIKeyHeader carries the caller credential.
const APIKeyHeader = "X-API-Key"

// APIKeyAuthorizer validates the opaque caller credential against a
// configured key set. An empty key set disables the check entirely, which
// is only intended for local development.
type APIKeyAuthorizer struct {
	keys []string
}

// NewAPIKeyAuthorizer creates an authorizer accepting the given keys.
func NewAPIKeyAuthorizer(keys []string) *APIKeyAuthorizer {
	return &APIKeyAuthorizer{keys: keys}
}

// Enabled reports whether any keys are configured.
func (a *APIKeyAuthorizer) Enabled() bool {
	return len(a.keys) > 0
}

// Authorize reports whether the presented key matches a configured one.
// Comparison is constant-time per candidate key.
func (a *APIKeyAuthorizer) Authorize(presented string) bool {
	if !a.Enabled() {
		return true
	}
	if presented == "" {
		return false
	}
	ok := false
	for _, key := range a.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			ok = true
		}
	}
	return ok
}

// Require wraps a handler with the API key check. Failures get the
// standard unauthorized error shape and never reach the handler.
func (a *APIKeyAuthorizer) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Authorize(r.Header.Get(APIKeyHeader)) {
			metrics.RecordAuthFailure()
			writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
}
