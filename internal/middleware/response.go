package middleware

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"zamstay-be/pkg/errors"
	"zamstay-be/pkg/logger"
)

// WriteError renders err as an ErrorResponse. Errors that are not an
// AppError are reported as internal without exposing their message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *logger.Logger) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || appErr.StatusCode == 0 {
		appErr = errors.NewInternalError("Internal server error", err)
	}

	log := logger.WithError(err).WithFields(map[string]interface{}{
		"type":   appErr.Type,
		"status": appErr.StatusCode,
		"path":   r.URL.Path,
	})
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error("Request error")
	} else {
		log.Debug("Request rejected")
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.RequestID = GetRequestID(r.Context())
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}

// WriteJSON renders v with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}
