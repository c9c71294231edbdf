package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates no form source is configured.
	ErrSourceUnavailable = errors.New("form source unavailable")

	// ErrOffline indicates the offline snapshot was requested but is not configured.
	ErrOffline = errors.New("offline store unavailable")

	// ErrFetchFailed wraps a network or source failure while fetching forms.
	// It is surfaced as-is; nothing in the core retries it.
	ErrFetchFailed = errors.New("fetching forms failed")

	// ErrStaleResponse marks a result for a superseded search term.
	// It never leaves the core.
	ErrStaleResponse = errors.New("stale response")

	// ErrLauncherUnavailable indicates no form launcher is configured.
	ErrLauncherUnavailable = errors.New("form launcher unavailable")
)
