// Package domain defines the core business entities for patientforms.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FormSummary: A clinical form as seen from one patient's record
//   - SectionConfig: A configured, named group of forms
//   - FeedState: The data, error and loading flags reported by a form feed
//   - SearchState, PaginationState, DisplayState: List controller state
//   - Settings: Typed application configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
