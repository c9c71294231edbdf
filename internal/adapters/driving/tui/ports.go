// Package tui provides an interactive terminal user interface for browsing a
// patient's forms. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/core/ports/driving"
)

// Ports aggregates the ports required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Forms opens form feeds.
	Forms driving.FormService

	// Actions opens forms and reports launch history.
	Actions driving.FormActionService

	// Locale supplies the date locale and its changes. Optional.
	Locale driven.LocaleSource
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(forms driving.FormService, actions driving.FormActionService, locale driven.LocaleSource) *Ports {
	return &Ports{
		Forms:   forms,
		Actions: actions,
		Locale:  locale,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Forms == nil {
		return ErrMissingFormService
	}
	if p.Actions == nil {
		return ErrMissingActionService
	}
	return nil
}
