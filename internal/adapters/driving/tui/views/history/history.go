// Package history provides the recent launches view for the TUI.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driving"
)

// Limit is the number of launches shown.
const Limit = 50

const timeLayout = "2006-01-02 15:04"

// View shows the forms recently opened for the patient.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	actions driving.FormActionService
	ctx     context.Context
	patient string

	records []domain.LaunchRecord
	loading bool
	err     error
	offset  int
	width   int
	height  int
}

// NewView creates a history view for one patient.
func NewView(s *styles.Styles, km *keymap.KeyMap, actions driving.FormActionService, patientUUID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:  s,
		keymap:  km,
		actions: actions,
		ctx:     context.Background(),
		patient: patientUUID,
		width:   80,
		height:  24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the launch history.
func (v *View) Init() tea.Cmd {
	if v.actions == nil {
		return nil
	}
	v.loading = true
	v.offset = 0
	ctx, actions, patient := v.ctx, v.actions, v.patient
	return func() tea.Msg {
		records, err := actions.History(ctx, patient, Limit)
		return messages.LaunchesLoaded{Records: records, Err: err}
	}
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.LaunchesLoaded:
		v.loading = false
		v.records = msg.Records
		v.err = msg.Err
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Back), key.Matches(msg, v.keymap.History):
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewForms} }
		case key.Matches(msg, v.keymap.Quit):
			return v, func() tea.Msg { return messages.Quit{} }
		case key.Matches(msg, v.keymap.Reload):
			return v, v.Init()
		case key.Matches(msg, v.keymap.Up):
			if v.offset > 0 {
				v.offset--
			}
		case key.Matches(msg, v.keymap.Down):
			if v.offset < len(v.records)-v.pageSize() {
				v.offset++
			}
		}
	}
	return v, nil
}

// View renders the launch history.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Recently opened"))
	b.WriteString(v.styles.Muted.Render("  patient " + v.patient))
	b.WriteString("\n\n")

	switch {
	case v.actions == nil:
		b.WriteString(v.styles.Muted.Render("History is not available"))
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Could not load history: " + v.err.Error()))
	case len(v.records) == 0:
		b.WriteString(v.styles.Muted.Render("No forms opened yet"))
	default:
		end := min(v.offset+v.pageSize(), len(v.records))
		for _, r := range v.records[v.offset:end] {
			b.WriteString(v.renderRecord(r))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Scroll  [r] Reload  [Esc] Back"))
	return b.String()
}

func (v *View) renderRecord(r domain.LaunchRecord) string {
	encounter := "new entry"
	if r.EncounterUUID != "" {
		encounter = "encounter " + r.EncounterUUID
	}
	name := r.FormName
	if name == "" {
		name = r.FormUUID
	}
	return fmt.Sprintf("%s  %s  %s",
		v.styles.Date.Render(r.LaunchedAt.Local().Format(timeLayout)),
		v.styles.Normal.Render(name),
		v.styles.Muted.Render(encounter),
	)
}

func (v *View) pageSize() int {
	return max(v.height-5, 1)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Records returns the loaded launches.
func (v *View) Records() []domain.LaunchRecord {
	return v.records
}
