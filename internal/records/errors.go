package records

import (
	"errors"
	"net/http"
)

// Domain errors for record operations.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	ErrNoName    = errors.New("record name is required")
)

// MapHTTPStatus maps record domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNoName) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
