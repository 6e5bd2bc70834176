package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"skinsignal-api/pkg/apierror"

	"go.uber.org/zap"
)

// AuthConfig holds configuration for the API key middleware.
type AuthConfig struct {
	APIKeys []string
	Logger  *zap.Logger
}

// NewAuthMiddleware guards operator routes with a static API key taken from
// X-API-Key or an Authorization bearer token. With no keys configured every
// request is refused.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	keys := make([]string, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(keys) == 0 {
				writeError(w, apierror.ServiceUnavailable("admin API disabled: no API keys configured"))
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					apiKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if apiKey == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-API-Key header."))
				return
			}

			if !isValidKey(apiKey, keys) {
				log.Warn("rejected api key", zap.String("path", r.URL.Path), zap.String("request_id", GetRequestID(r.Context())))
				writeError(w, apierror.Unauthorized("Invalid API key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// isValidKey checks key against every valid key in constant time.
func isValidKey(key string, validKeys []string) bool {
	ok := false
	for _, valid := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			ok = true
		}
	}
	return ok
}
