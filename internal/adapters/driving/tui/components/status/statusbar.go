// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/listing"
)

// Bar displays list progress, errors and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	view    listing.ListView
	spinner string
	message string
	typing  bool
	offline bool
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := max(s.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var parts []string
	if s.offline {
		parts = append(parts, s.styles.Warning.Render("offline"))
	}
	parts = append(parts, s.progress())
	if s.message != "" {
		parts = append(parts, s.styles.Success.Render(s.message))
	}
	return strings.Join(parts, "  ")
}

// progress describes the list state.
func (s *Bar) progress() string {
	v := s.view
	loaded := len(v.Rows)
	busy := s.spinner
	if busy != "" {
		busy += " "
	}

	switch v.State {
	case domain.DisplayLoading:
		return s.styles.Muted.Render(busy + "Loading forms...")
	case domain.DisplaySearching:
		return s.styles.Muted.Render(busy + "Searching...")
	case domain.DisplayError:
		msg := "Error"
		if v.Err != nil {
			msg = "Error: " + v.Err.Error()
		}
		if loaded > 0 {
			msg += fmt.Sprintf(" (showing %d loaded)", loaded)
		}
		return s.styles.Error.Render(msg)
	case domain.DisplayEmpty:
		if v.Search.CommittedTerm != "" {
			return s.styles.Muted.Render(fmt.Sprintf("No forms match %q", v.Search.CommittedTerm))
		}
		return s.styles.Muted.Render("No forms")
	}

	text := fmt.Sprintf("%d forms", loaded)
	if v.Total > loaded {
		text = fmt.Sprintf("%d of %d loaded", loaded, v.Total)
	}
	out := s.styles.Normal.Render(text)
	if v.Pagination.LoadInFlight {
		out += "  " + s.styles.Muted.Render(busy+"Loading more...")
	}
	return out
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	if s.typing {
		bindings = s.keymap.InputHelp()
	}
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		hints = append(hints, hint(b))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

func hint(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("%s: %s", h.Key, h.Desc)
}

// SetView sets the list view to describe.
func (s *Bar) SetView(view listing.ListView) {
	s.view = view
}

// SetSpinner sets the spinner frame shown while busy. Empty hides it.
func (s *Bar) SetSpinner(frame string) {
	s.spinner = frame
}

// SetMessage sets a transient message, such as a confirmation.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetTyping switches the hints between list and search input bindings.
func (s *Bar) SetTyping(typing bool) {
	s.typing = typing
}

// SetOffline marks the list as read from the offline snapshot.
func (s *Bar) SetOffline(offline bool) {
	s.offline = offline
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
