// internal/errors/mapper.go
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Map converts repo/domain errors into an HTTP status and a stable error
// kind. Keeps handlers clean by centralizing error mapping.
func Map(err error) (int, Kind) {
	if err == nil {
		return http.StatusOK, ""
	}

	var domErr *Error
	switch {
	case errors.As(err, &domErr):
		switch domErr.Kind {
		case KindSelfReference, KindInvalid:
			return http.StatusBadRequest, domErr.Kind
		case KindUnknownUser, KindNotFound:
			return http.StatusNotFound, domErr.Kind
		case KindNotMatched:
			return http.StatusForbidden, domErr.Kind
		}
		return http.StatusInternalServerError, domErr.Kind

	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, KindNotFound

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, KindInternal

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, KindInternal

	default:
		return http.StatusInternalServerError, KindInternal
	}
}

// WriteJSON writes err as a JSON error body with the mapped status code.
func WriteJSON(w http.ResponseWriter, err error) {
	status, kind := Map(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	})
}
