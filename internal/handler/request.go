package handler

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"zamstay-be/pkg/errors"
)

const (
	// maxBodyBytes bounds request bodies accepted by write endpoints
	maxBodyBytes = 64 << 10

	dateLayout = "2006-01-02"
)

// referenceTime reads the optional RFC3339 reference_time query parameter,
// defaulting to now
func referenceTime(r *http.Request, now time.Time) (time.Time, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("reference_time"))
	if raw == "" {
		return now, false, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, errors.NewValidationError("reference_time must be an RFC3339 timestamp", map[string]interface{}{
			"reference_time": raw,
		})
	}
	return t, true, nil
}

// dateParam parses a YYYY-MM-DD query parameter as midnight in loc
func dateParam(r *http.Request, name string, loc *time.Location) (time.Time, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, false, errors.NewValidationError(fmt.Sprintf("%s must be a YYYY-MM-DD date", name), map[string]interface{}{
			name: raw,
		})
	}
	return t, true, nil
}

// idParam parses a positive integer path parameter
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid %s", name), nil)
	}
	return id, nil
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.NewValidationError("Request body is required", nil)
		}
		return errors.NewValidationError("Invalid request body", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return nil
}

func generateETag(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf(`"%x"`, hash)
}
