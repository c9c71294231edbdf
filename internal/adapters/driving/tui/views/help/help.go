// Package help provides the keybinding reference view for the TUI.
package help

import (
	"strings"

	bhelp "github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/styles"
)

// View lists every keybinding.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   bhelp.Model
	width  int
	height int
}

// NewView creates a help view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := bhelp.New()
	h.ShowAll = true
	h.Styles.FullKey = s.Subtitle
	h.Styles.FullDesc = s.Normal
	h.Styles.FullSeparator = s.Muted

	return &View{
		styles: s,
		keymap: km,
		help:   h,
		width:  80,
		height: 24,
	}
}

// Init initialises the help view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Back), key.Matches(msg, v.keymap.Help):
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewForms} }
		case msg.String() == "q":
			return v, func() tea.Msg { return messages.Quit{} }
		}
	}
	return v, nil
}

// View renders the keybinding reference.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")
	b.WriteString(v.help.FullHelpView(v.keymap.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Type to filter the list. Results update after a short pause."))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[Esc] Back  [q] Quit"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.help.Width = width
}
