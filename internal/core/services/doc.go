// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Form feeds run their fetches on background goroutines and report
// progress to subscribers; the list controller in package listing
// consumes those reports.
package services
