package anytype

import (
	"errors"
	"fmt"
)

// Common errors returned by the Anytype client.
var (
	// ErrAuth indicates an authentication error (missing/invalid token).
	ErrAuth = errors.New("Anytype authentication error")

	// ErrNetwork indicates a network connectivity issue.
	ErrNetwork = errors.New("network error communicating with Anytype")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Anytype")
)

// APIError represents an error reported by the Anytype API.
type APIError struct {
	StatusCode int
	Operation  string // create, update, search, upload, attach
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("Anytype API error (status %d) during %s: %s", e.StatusCode, e.Operation, e.Message)
	}
	return fmt.Sprintf("Anytype API error (status %d) during %s", e.StatusCode, e.Operation)
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuth) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}
