package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"zamstay-be/internal/domain"
	"zamstay-be/pkg/errors"
	"zamstay-be/pkg/logger"
)

// DefaultTokenTTL is the lifetime of tokens issued by IssueToken
const DefaultTokenTTL = 24 * time.Hour

// Service issues and verifies HS256 access tokens carrying the user id in
// "sub" and the account role in "role"
type Service struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
	logger *logger.Logger
}

// NewService creates a new auth service
func NewService(secret string, clock clockwork.Clock, logger *logger.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		clock:  clock,
		logger: logger,
	}
}

// IssueToken signs a token for the given identity
func (s *Service) IssueToken(claims domain.AuthClaims) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.NewInternalError("JWT signing not configured", nil)
	}
	if _, err := domain.ParseRole(string(claims.Role)); err != nil {
		return "", errors.NewValidationError(err.Error(), nil)
	}

	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatInt(claims.UserID, 10),
		"role":  string(claims.Role),
		"email": claims.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.NewInternalError("Failed to sign token", err)
	}
	return signed, nil
}

// ValidateToken verifies the signature and expiry of a token and returns
// its claims. The role must be one of the known roles.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.AuthClaims, error) {
	if len(s.secret) == 0 {
		s.logger.Error("JWT_SECRET not configured")
		return nil, errors.NewAuthenticationError("JWT validation not configured")
	}
	if !isJWTToken(tokenString) {
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		s.logger.WithError(err).Debug("Failed to parse/validate JWT token")
		return nil, errors.NewAuthenticationError("Invalid or expired token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.NewAuthenticationError("Invalid token")
	}

	sub, err := mapClaims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.NewAuthenticationError("Invalid token: no user identifier")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return nil, errors.NewAuthenticationError("Invalid token: malformed user identifier")
	}

	role, err := domain.ParseRole(getStringValue(mapClaims, "role"))
	if err != nil {
		s.logger.WithField("user_id", userID).Warn("Token carries an unknown role")
		return nil, errors.NewAuthenticationError("Invalid token: unknown role")
	}

	claims := &domain.AuthClaims{
		UserID: userID,
		Role:   role,
		Email:  getStringValue(mapClaims, "email"),
	}
	s.logger.WithField("user_id", userID).Debug("JWT token validated successfully")
	return claims, nil
}

// isJWTToken reports whether token has exactly three dot-separated segments
func isJWTToken(token string) bool {
	if len(token) == 0 {
		return false
	}

	dotCount := 0
	for _, char := range token {
		if char == '.' {
			dotCount++
		}
	}
	return dotCount == 2
}

func getStringValue(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
