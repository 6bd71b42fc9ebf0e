package crossref

import (
	"errors"
	"fmt"
)

// ErrRetrieval covers every failure to retrieve or parse metadata:
// unreachable API, non-success status, malformed body, or mandatory
// fields missing from the response.
var ErrRetrieval = errors.New("metadata retrieval failed")

// APIError carries the HTTP status of a failed Crossref request.
type APIError struct {
	StatusCode int
	DOI        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Crossref API error (status %d) for DOI %s", e.StatusCode, e.DOI)
}

// Unwrap lets callers match APIError values with errors.Is(err, ErrRetrieval).
func (e *APIError) Unwrap() error {
	return ErrRetrieval
}

// IsNotFound returns true if the error indicates an unknown DOI.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
