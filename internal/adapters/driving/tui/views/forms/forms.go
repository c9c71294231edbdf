// Package forms provides the patient forms list view for the TUI.
package forms

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/listing"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/core/ports/driving"
)

// chromeHeight is the number of lines used by the title, input and status bar.
const chromeHeight = 7

// Config describes the list to show.
type Config struct {
	PatientUUID string
	VisitUUID   string
	Offline     bool

	// Settings supplies list behaviour and sections.
	Settings domain.Settings

	// Locale supplies the date locale. Optional.
	Locale driven.LocaleSource

	// Clock drives the search debounce. Nil uses the system clock.
	Clock listing.Clock
}

// View is the forms list with its search input and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.FormList
	viewport  *list.Viewport
	statusbar *status.Bar
	spinner   spinner.Model

	formService   driving.FormService
	actionService driving.FormActionService
	cfg           Config
	ctx           context.Context

	feed        driving.FormFeed
	ctrl        *listing.Controller
	unsubscribe func()
	changes     chan struct{}
	done        chan struct{}
	closed      bool

	current    listing.ListView
	width      int
	height     int
	focusInput bool
	err        error
}

// NewView creates a forms view. Nothing is fetched until Init.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	formService driving.FormService,
	actionService driving.FormActionService,
	cfg Config,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	vp := list.NewViewport()
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Subtitle))

	v := &View{
		styles:        s,
		keymap:        km,
		input:         input.NewSearchInput(s),
		list:          list.NewFormList(s, vp),
		viewport:      vp,
		statusbar:     status.NewBar(s, km),
		spinner:       sp,
		formService:   formService,
		actionService: actionService,
		cfg:           cfg,
		ctx:           context.Background(),
		changes:       make(chan struct{}, 1),
		done:          make(chan struct{}),
		width:         80,
		height:        24,
		focusInput:    true,
	}
	v.statusbar.SetOffline(cfg.Offline)
	v.statusbar.SetTyping(true)
	v.SetDimensions(v.width, v.height)
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Open creates the feed and controller. It is called by Init and may be
// called earlier to surface configuration errors.
func (v *View) Open() error {
	if v.feed != nil {
		return nil
	}
	if v.formService == nil {
		return ErrNoFormService
	}
	if v.cfg.PatientUUID == "" {
		return ErrNoPatient
	}

	settings := v.cfg.Settings
	feed, err := v.formService.OpenFeed(v.ctx, domain.FeedRequest{
		PatientUUID: v.cfg.PatientUUID,
		VisitUUID:   v.cfg.VisitUUID,
		OrderBy:     settings.Forms.OrderBy,
		Offline:     v.cfg.Offline,
		Strategy:    settings.Strategy(),
		PageSize:    settings.Forms.PageSize,
	})
	if err != nil {
		return fmt.Errorf("open forms feed: %w", err)
	}

	opts := listing.Options{
		Sections:        settings.Sections,
		InfiniteLoading: settings.Forms.InfiniteScrolling,
		Debounce:        settings.Forms.Debounce,
		Clock:           v.cfg.Clock,
		NewObserver:     v.viewport.NewObserver,
		Locale:          v.cfg.Locale,
		OnChange:        v.notify,
	}
	if settings.Forms.RemoteSearch {
		opts.RemoteSearch = feed.Search
	}
	if settings.Forms.InfiniteScrolling {
		opts.LoadMore = feed.LoadMore
	}

	v.feed = feed
	v.ctrl = listing.New(opts)
	v.unsubscribe = feed.Subscribe(v.ctrl.Receive)
	return nil
}

// Init opens the feed, starts the first fetch and listens for list changes.
func (v *View) Init() tea.Cmd {
	if err := v.Open(); err != nil {
		v.err = err
		return func() tea.Msg { return messages.ErrorOccurred{Err: err} }
	}
	v.feed.Start()
	v.refresh()
	return tea.Batch(v.input.Init(), v.spinner.Tick, v.waitForChange())
}

// Close stops the feed and the controller.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	close(v.done)
	if v.unsubscribe != nil {
		v.unsubscribe()
	}
	if v.ctrl != nil {
		v.ctrl.Dispose()
	}
	if v.feed != nil {
		v.feed.Close()
	}
}

// notify is the controller's change callback. It runs on arbitrary
// goroutines and must not block.
func (v *View) notify() {
	select {
	case v.changes <- struct{}{}:
	default:
	}
}

// waitForChange blocks until the controller reports a change.
func (v *View) waitForChange() tea.Cmd {
	changes, done := v.changes, v.done
	return func() tea.Msg {
		select {
		case <-changes:
			return messages.ListChanged{}
		case <-done:
			return nil
		}
	}
}

// Update handles messages for the forms view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.ListChanged:
		v.refresh()
		if v.closed {
			return v, nil
		}
		return v, v.waitForChange()

	case messages.SentinelVisibility:
		v.list.ReportVisibility()
		return v, nil

	case messages.FormOpened:
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.SetMessage("")
		} else {
			v.err = nil
			v.statusbar.SetMessage("Opened " + msg.Label)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.updateSpinner()
		return v, cmd

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	if v.focusInput {
		var cmd tea.Cmd
		v.input, cmd, _ = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.focusInput {
		return v.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	case key.Matches(msg, v.keymap.Search):
		return v, v.focus()
	case key.Matches(msg, v.keymap.Help):
		return v, changeView(messages.ViewHelp)
	case key.Matches(msg, v.keymap.History):
		return v, changeView(messages.ViewHistory)
	case key.Matches(msg, v.keymap.Reload):
		v.err = nil
		v.statusbar.SetMessage("")
		if v.feed != nil {
			v.feed.Reload()
		}
		return v, nil
	case key.Matches(msg, v.keymap.Open):
		return v, v.openSelected()
	case key.Matches(msg, v.keymap.Back):
		if v.input.Value() != "" {
			v.input.Reset()
			v.submit("")
		}
		return v, nil
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.PageUp):
		v.list.PageUp()
	case key.Matches(msg, v.keymap.PageDown):
		v.list.PageDown()
	case key.Matches(msg, v.keymap.Top):
		v.list.Top()
	case key.Matches(msg, v.keymap.Bottom):
		v.list.Bottom()
	default:
		return v, nil
	}
	v.list.ReportVisibility()
	return v, nil
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only keys that leave the input
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter, tea.KeyDown, tea.KeyTab:
		v.blur()
		return v, nil
	}

	var cmd tea.Cmd
	var changed bool
	v.input, cmd, changed = v.input.Update(msg)
	if changed {
		v.submit(v.input.Value())
	}
	return v, cmd
}

func (v *View) submit(term string) {
	if v.ctrl != nil {
		v.ctrl.Submit(term)
	}
}

func (v *View) focus() tea.Cmd {
	v.focusInput = true
	v.statusbar.SetTyping(true)
	return v.input.Focus()
}

func (v *View) blur() {
	v.focusInput = false
	v.statusbar.SetTyping(false)
	v.input.Blur()
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}

// openSelected opens the selected form on a command goroutine.
func (v *View) openSelected() tea.Cmd {
	row, ok := v.list.SelectedRow()
	if !ok || v.actionService == nil {
		return nil
	}
	form, ok := v.formFor(row)
	if !ok {
		return nil
	}

	ctx, actions := v.ctx, v.actionService
	patient, encounter := v.cfg.PatientUUID, row.EncounterUUID
	return func() tea.Msg {
		err := actions.OpenForm(ctx, patient, form, encounter)
		return messages.FormOpened{FormUUID: form.UUID, Label: form.Label(), Err: err}
	}
}

func (v *View) formFor(row listing.Row) (domain.FormSummary, bool) {
	for _, f := range v.current.Forms {
		if f.UUID == row.FormUUID {
			return f, true
		}
	}
	return domain.FormSummary{}, false
}

// refresh pulls the controller's view into the components and hands the
// list's sentinel to the load-more trigger.
func (v *View) refresh() {
	if v.ctrl == nil {
		return
	}
	v.current = v.ctrl.View()
	v.list.SetView(v.current, v.cfg.Settings.Forms.InfiniteScrolling)
	v.statusbar.SetView(v.current)
	v.updateSpinner()

	if s := v.list.Sentinel(); s != "" {
		v.ctrl.AttachSentinel(s)
	} else {
		v.ctrl.DetachSentinel()
	}
	v.list.ReportVisibility()
}

func (v *View) busy() bool {
	switch v.current.State {
	case domain.DisplayLoading, domain.DisplaySearching:
		return true
	}
	return v.current.Pagination.LoadInFlight
}

func (v *View) updateSpinner() {
	if v.busy() {
		v.statusbar.SetSpinner(v.spinner.View())
	} else {
		v.statusbar.SetSpinner("")
	}
}

// View renders the forms view.
func (v *View) View() string {
	var b strings.Builder

	title := v.styles.Title.Render("Patient forms")
	patient := v.styles.Muted.Render("  patient " + v.cfg.PatientUUID)
	if v.cfg.VisitUUID != "" {
		patient += v.styles.Muted.Render("  visit " + v.cfg.VisitUUID)
	}
	b.WriteString(title + patient + "\n")
	b.WriteString(v.input.View() + "\n")

	body := v.list.View()
	if v.list.IsEmpty() {
		body = v.placeholder()
	}
	b.WriteString(lipgloss.NewStyle().Height(v.listHeight()).Render(body))
	b.WriteString("\n")

	if v.err != nil && v.current.Err == nil {
		b.WriteString(v.styles.Error.Render("Error: "+v.err.Error()) + "\n")
	}
	b.WriteString(v.statusbar.View())
	return b.String()
}

// placeholder describes an empty list.
func (v *View) placeholder() string {
	switch v.current.State {
	case domain.DisplayLoading:
		return v.styles.Muted.Render(v.spinner.View() + " Loading forms...")
	case domain.DisplaySearching:
		return v.styles.Muted.Render(v.spinner.View() + " Searching...")
	case domain.DisplayError:
		msg := "Could not load forms"
		if v.current.Err != nil {
			msg += ": " + v.current.Err.Error()
		}
		return v.styles.Error.Render(msg) + "\n" + v.styles.Help.Render("press r to retry")
	default:
		if v.current.Search.CommittedTerm != "" {
			return v.styles.Muted.Render(fmt.Sprintf("No forms match %q", v.current.Search.CommittedTerm))
		}
		return v.styles.Muted.Render("No forms for this patient")
	}
}

func (v *View) listHeight() int {
	return max(v.height-chromeHeight, 1)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.list.SetDimensions(width, v.listHeight())
	v.list.ReportVisibility()
}

// ListView returns the last rendered list view.
func (v *View) ListView() listing.ListView {
	return v.current
}

// Query returns the raw search input.
func (v *View) Query() string {
	return v.input.Value()
}

// InputFocused reports whether keys go to the search input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Err returns the last error shown by the view.
func (v *View) Err() error {
	return v.err
}
