// Package listing implements the search-and-pagination controller behind a
// patient's form list.
//
// A Controller owns one list and composes:
//
//   - SearchDispatcher: debounces search input and either filters the loaded
//     forms locally or forwards the committed term to the caller
//   - IncrementalLoadTrigger: asks for the next page when the list's sentinel
//     scrolls into view, never while a load is in flight
//   - Group: partitions forms into configured sections
//
// The controller is renderer-agnostic. Time comes from a Clock and viewport
// visibility from an Observer, so the TUI and tests supply their own.
package listing
