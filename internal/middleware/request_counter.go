package middleware

import (
	"context"
	"net/http"
	"time"

	"zamstay-be/pkg/logger"
)

// Incrementer counts a request
type Incrementer interface {
	Increment(ctx context.Context) error
}

// CountRequests adds every request to the daily API request counter. A
// counter failure never fails the request.
func CountRequests(counter Incrementer, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			if err := counter.Increment(ctx); err != nil {
				logger.WithError(err).Warn("Failed to count request")
			}
			cancel()

			next.ServeHTTP(w, r)
		})
	}
}
