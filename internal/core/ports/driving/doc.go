// Package driving defines the interfaces that external actors use to call INTO core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI and TUI adapters depend on these interfaces; core services implement them.
//
//   - FormService: Opens form feeds and lists forms
//   - FormFeed: Stream of form data for one list
//   - FormActionService: Opens forms and reports launch history
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package, services package
package driving
