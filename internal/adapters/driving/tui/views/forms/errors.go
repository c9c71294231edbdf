package forms

import "errors"

// Error definitions for the forms view.
var (
	// ErrNoFormService indicates that no form service was provided.
	ErrNoFormService = errors.New("form service is required")

	// ErrNoPatient indicates that no patient was selected.
	ErrNoPatient = errors.New("patient UUID is required")
)
