// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - FormSource: Fetches forms for a patient (FHIR server)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SnapshotStore: Offline copy of a patient's forms. Without it, --offline fails.
//   - FormLauncher: Opens a selected form. Without it, opening reports an error.
//   - LaunchStore: Launch history. Without it, launches are not recorded.
//   - LocaleSource: Display locale. Without it, the default locale is used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
