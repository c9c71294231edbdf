package fhir

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

// FHIR-specific errors.
var (
	// ErrInvalidBundle indicates the server answered with something other than a search bundle.
	ErrInvalidBundle = errors.New("fhir: invalid bundle")

	// ErrForeignLink indicates a paging link pointing away from the configured server.
	ErrForeignLink = errors.New("fhir: paging link leaves the server")
)

// APIError represents a non-success response from the FHIR server.
// It matches domain.ErrFetchFailed with errors.Is, and domain.ErrNotFound
// as well for a 404.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fhir: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

func (e *APIError) Unwrap() []error {
	if e.StatusCode == http.StatusNotFound {
		return []error{domain.ErrFetchFailed, domain.ErrNotFound}
	}
	return []error{domain.ErrFetchFailed}
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}
