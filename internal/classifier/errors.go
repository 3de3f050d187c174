package classifier

import (
	"errors"
	"fmt"
)

// Client errors.
var (
	// ErrNotConfigured indicates no endpoint is set; callers should check
	// IsConfigured before invoking any operation.
	ErrNotConfigured = errors.New("classifier endpoint not configured")

	// ErrNoRecords indicates a submission was attempted with an empty record
	// list, which is a caller bug rather than an empty-work no-op.
	ErrNoRecords = errors.New("no records to submit")
)

// StatusError is a non-2xx HTTP response from the classification service.
// Client errors (4xx) are not retried; everything else is transient.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("classifier returned status %d", e.Code)
	}
	return fmt.Sprintf("classifier returned status %d: %s", e.Code, e.Body)
}

// Permanent reports whether the response indicates a non-retryable failure.
func (e *StatusError) Permanent() bool {
	return e.Code >= 400 && e.Code < 500
}
