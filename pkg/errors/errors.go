package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeAuthentication   ErrorType = "authentication"
	ErrorTypeAuthorization    ErrorType = "authorization"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeConflict         ErrorType = "conflict"
	ErrorTypeInternal         ErrorType = "internal"
	ErrorTypeInvalidScope     ErrorType = "invalid_scope"
	ErrorTypeDataUnavailable  ErrorType = "data_unavailable"
	ErrorTypeCacheUnavailable ErrorType = "cache_unavailable"
)

// Sentinels for errors.Is checks. Matching is by Type only.
var (
	ErrValidation       = &AppError{Type: ErrorTypeValidation}
	ErrAuthentication   = &AppError{Type: ErrorTypeAuthentication}
	ErrAuthorization    = &AppError{Type: ErrorTypeAuthorization}
	ErrNotFound         = &AppError{Type: ErrorTypeNotFound}
	ErrConflict         = &AppError{Type: ErrorTypeConflict}
	ErrInvalidScope     = &AppError{Type: ErrorTypeInvalidScope}
	ErrDataUnavailable  = &AppError{Type: ErrorTypeDataUnavailable}
	ErrCacheUnavailable = &AppError{Type: ErrorTypeCacheUnavailable}
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is reports whether target is an AppError of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthorization,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates an error for writes that violate a state rule
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewInvalidScopeError creates an error for a malformed or unknown stats scope
func NewInvalidScopeError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidScope,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewDataUnavailableError creates an error for an unreachable or failing store
func NewDataUnavailableError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeDataUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Internal:   internal,
	}
}

// NewCacheUnavailableError creates an error for a failing cache backend.
// Callers treat it as soft and fall back to direct computation.
func NewCacheUnavailableError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeCacheUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Internal:   internal,
	}
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Error struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		RequestID string                 `json:"request_id,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
