package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"zamstay-be/internal/domain"
	"zamstay-be/pkg/errors"
	"zamstay-be/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// UserContextKey is the key for the caller's claims in context
	UserContextKey ContextKey = "user"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"

	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"
	// ScopeHeader names the data partition a statistics response covers
	ScopeHeader = "X-Stats-Scope"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error)
}

// Auth creates an authentication middleware
func Auth(validator TokenValidator, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, appErr := bearerToken(r)
			if appErr != nil {
				WriteError(w, r, appErr, logger)
				return
			}

			ctx := r.Context()
			claims, err := validator.ValidateToken(ctx, token)
			if err != nil {
				logger.WithError(err).Debug("Token validation failed")
				WriteError(w, r, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			ctx = WithClaims(ctx, claims)
			logger.WithField("user_id", claims.UserID).Debug("User authenticated successfully")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth validates a bearer token when one is present and otherwise
// continues anonymously
func OptionalAuth(validator TokenValidator, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, appErr := bearerToken(r)
			if appErr != nil {
				WriteError(w, r, appErr, logger)
				return
			}

			ctx := r.Context()
			claims, err := validator.ValidateToken(ctx, token)
			if err != nil {
				logger.WithError(err).Debug("Token validation failed")
				WriteError(w, r, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not listed. It
// must run after Auth.
func RequireRole(logger *logger.Logger, roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				WriteError(w, r, errors.NewAuthenticationError("Authentication required"), logger)
				return
			}
			if !allowed[claims.Role] {
				logger.WithFields(map[string]interface{}{
					"user_id": claims.UserID,
					"role":    claims.Role,
					"path":    r.URL.Path,
				}).Warn("Role not permitted")
				WriteError(w, r, errors.NewAuthorizationError("Insufficient permissions"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims stores the caller's claims in ctx
func WithClaims(ctx context.Context, claims *domain.AuthClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetClaims returns the caller's claims, or nil for anonymous requests
func GetClaims(ctx context.Context) *domain.AuthClaims {
	claims, _ := ctx.Value(UserContextKey).(*domain.AuthClaims)
	return claims
}

// RequestID creates a middleware that adds a unique request ID to each
// request. An incoming X-Request-ID that parses as a UUID is kept.
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set(RequestIDHeader, requestID)

			logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
			}).Debug("Request received")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the request id stored by RequestID
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

func bearerToken(r *http.Request) (string, *errors.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.NewAuthenticationError("Authorization header is required")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.NewAuthenticationError("Invalid authorization header format")
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.NewAuthenticationError("Token is required")
	}
	return token, nil
}
