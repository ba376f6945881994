package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"zamstay-be/pkg/logger"
)

// corsMaxAge is how long browsers may cache a preflight answer
const corsMaxAge = 10 * 60

var (
	corsMethods = strings.Join([]string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	}, ", ")
	corsAllowHeaders  = strings.Join([]string{"Authorization", "Content-Type", "If-None-Match", RequestIDHeader}, ", ")
	corsExposeHeaders = strings.Join([]string{"ETag", RequestIDHeader, ScopeHeader}, ", ")
)

// CORS lets the dashboard frontends listed in allowedOrigins call the API
// with credentials. "*" allows any origin without credentials.
func CORS(allowedOrigins []string, log *logger.Logger) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")

			switch {
			case origin != "" && allowed[origin]:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			case allowed["*"]:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				log.WithFields(map[string]interface{}{
					"origin": origin,
					"path":   r.URL.Path,
				}).Debug("CORS origin not allowed")
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			next.ServeHTTP(w, r)
		})
	}
}
