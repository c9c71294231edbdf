package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/views/forms"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/views/help"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/views/history"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	// formsView is the patient forms list.
	formsView *forms.View

	// helpView lists the keybindings.
	helpView *help.View

	// historyView lists recent launches.
	historyView *history.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has received its first window size.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application for the patient described by cfg.
func NewApp(ports *Ports, cfg forms.Config) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if cfg.PatientUUID == "" {
		return nil, fmt.Errorf("creating app: %w", forms.ErrNoPatient)
	}
	if cfg.Locale == nil {
		cfg.Locale = ports.Locale
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		formsView:   forms.NewView(s, km, ports.Forms, ports.Actions, cfg),
		helpView:    help.NewView(s, km),
		historyView: history.NewView(s, km, ports.Actions, cfg.PatientUUID),
		currentView: messages.ViewForms,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.formsView.WithContext(ctx)
	a.historyView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
// It opens the forms feed and sets the window title.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("patientforms"),
		a.formsView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, a.quit()
		}
		switch a.currentView {
		case messages.ViewHelp:
			a.helpView, cmd = a.helpView.Update(msg)
		case messages.ViewHistory:
			a.historyView, cmd = a.historyView.Update(msg)
		default:
			a.formsView, cmd = a.formsView.Update(msg)
			a.err = a.formsView.Err()
		}
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewHistory {
			return a, a.historyView.Init()
		}
		return a, nil

	// List updates arrive whichever view is showing.
	case messages.ListChanged, messages.SentinelVisibility, messages.FormOpened, spinner.TickMsg:
		a.formsView, cmd = a.formsView.Update(msg)
		a.err = a.formsView.Err()
		return a, cmd

	case messages.LaunchesLoaded:
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.formsView, cmd = a.formsView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, a.quit()
	}

	if a.currentView == messages.ViewForms {
		a.formsView, cmd = a.formsView.Update(msg)
	}
	return a, cmd
}

func (a *App) quit() tea.Cmd {
	a.Close()
	return tea.Quit
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewHelp:
		return a.helpView.View()
	case messages.ViewHistory:
		return a.historyView.View()
	default:
		return a.formsView.View()
	}
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	defer a.Close()

	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Close releases the forms feed. It is safe to call more than once.
func (a *App) Close() {
	a.formsView.Close()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Forms returns the forms view.
func (a *App) Forms() *forms.View {
	return a.formsView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.formsView.SetDimensions(width, height)
	a.helpView.SetDimensions(width, height)
	a.historyView.SetDimensions(width, height)
}
