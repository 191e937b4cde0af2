package meshy

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError is the single error type for all remote API failures: transport
// errors, non-2xx responses, and responses missing expected fields.
type APIError struct {
	// Op is the client operation that failed (e.g., "CreatePreviewTask").
	Op string

	// Message describes the failure.
	Message string

	// StatusCode is the HTTP status, when a response was received. Zero
	// for transport-level failures.
	StatusCode int

	// Body is the parsed error response body, when one was obtainable.
	Body json.RawMessage

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("meshy %s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("meshy %s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAPIError reports whether err is (or wraps) an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
