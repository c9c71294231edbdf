package tui

import "errors"

// ErrMissingFormService is returned when the form service is not provided.
var ErrMissingFormService = errors.New("tui: form service is required")

// ErrMissingActionService is returned when the form action service is not provided.
var ErrMissingActionService = errors.New("tui: form action service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
