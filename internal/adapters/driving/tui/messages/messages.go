// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/patientforms/internal/core/domain"
)

// ListChanged is sent when the forms list controller has a new view to render.
type ListChanged struct{}

// SentinelVisibility asks the list to report its sentinel's visibility again.
type SentinelVisibility struct{}

// FormOpened reports the outcome of opening a form.
type FormOpened struct {
	FormUUID string
	Label    string
	Err      error
}

// LaunchesLoaded carries the launch history.
type LaunchesLoaded struct {
	Records []domain.LaunchRecord
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewForms is the forms list with its search input.
	ViewForms ViewType = iota
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewHistory lists recent form launches.
	ViewHistory
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewForms:
		return "forms"
	case ViewHelp:
		return "help"
	case ViewHistory:
		return "history"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
