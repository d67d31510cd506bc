package copperx

import (
	"errors"
	"fmt"
)

// APIError represents a non-success response from the payout API. The engine
// treats every instance as a single error class; the fields exist for logs.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

// Error formats the failure with endpoint and HTTP status.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("copperx: %s returned %d: %s", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("copperx: %s returned %d", e.Endpoint, e.Status)
}

// Code exposes the HTTP status as an error code for log derivation.
func (e *APIError) Code() string {
	return fmt.Sprintf("HTTP_%d", e.Status)
}

// IsAPIError reports whether err wraps an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
