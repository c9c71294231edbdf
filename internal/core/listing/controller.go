package listing

import (
	"sync"
	"time"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// Options configures a Controller.
type Options struct {
	// Sections groups rows. Empty renders a single ungrouped list.
	Sections []domain.SectionConfig

	// RemoteSearch puts the list in remote search mode when set.
	RemoteSearch RemoteSearchFunc

	// LoadMore requests the next page; required for infinite loading.
	LoadMore func()

	// InfiniteLoading enables the load-more trigger.
	InfiniteLoading bool

	// Debounce is the search debounce interval. Zero uses the default.
	Debounce time.Duration

	// Clock drives the debounce timer. Nil uses SystemClock.
	Clock Clock

	// NewObserver creates the viewport observer for the load-more trigger.
	NewObserver ObserverFactory

	// Threshold is the sentinel visibility that triggers a load.
	Threshold float64

	// Locale supplies the date locale. Nil uses domain.DefaultLocale.
	Locale driven.LocaleSource

	// OnChange is called after every change to the list view.
	OnChange func()
}

// Row is the read-only view model of one form row.
type Row struct {
	Identifier             string
	DisplayName            string
	LastCompletedFormatted string
	FormUUID               string
	EncounterUUID          string
}

// SectionView is a named group of rows.
type SectionView struct {
	Name string
	Rows []Row
}

// ListView is everything a renderer needs to draw the list.
type ListView struct {
	State      domain.DisplayState
	LastGood   domain.DisplayState
	Search     domain.SearchState
	Pagination domain.PaginationState
	Total      int

	// Rows holds every visible row. It stays populated when a load-more fails
	// and is empty when a fresh fetch fails.
	Rows []Row

	// Sectioned is true when sections are configured; Sections then holds
	// the grouped rows.
	Sectioned bool
	Sections  []SectionView

	// Forms are the summaries behind Rows, in the same order.
	Forms domain.ResultSet

	Err error
}

// Controller is the search-and-pagination controller for one rendered list.
type Controller struct {
	dispatcher *SearchDispatcher
	trigger    *IncrementalLoadTrigger
	sections   []domain.SectionConfig
	onChange   func()

	mu        sync.Mutex
	machine   *displayMachine
	last      domain.FeedState
	received  bool
	formatter *DateFormatter
	disposed  bool

	cancelLocale func()
}

// New creates a controller. The search mode and load strategy are fixed for
// its lifetime.
func New(opts Options) *Controller {
	c := &Controller{
		sections: append([]domain.SectionConfig(nil), opts.Sections...),
		onChange: opts.OnChange,
		machine:  newDisplayMachine(),
	}

	c.dispatcher = NewSearchDispatcher(DispatcherConfig{
		Debounce: opts.Debounce,
		Clock:    opts.Clock,
		Remote:   opts.RemoteSearch,
		OnCommit: func(domain.SearchState) { c.changed() },
	})
	c.trigger = NewIncrementalLoadTrigger(TriggerConfig{
		Enabled:     opts.InfiniteLoading,
		LoadMore:    opts.LoadMore,
		NewObserver: opts.NewObserver,
		Threshold:   opts.Threshold,
	})

	locale := domain.DefaultLocale
	if opts.Locale != nil {
		if current := opts.Locale.Current(); current != "" {
			locale = current
		}
		c.cancelLocale = opts.Locale.Subscribe(c.setLocale)
	}
	c.formatter = NewDateFormatter(locale)

	return c
}

// Submit forwards raw search input to the dispatcher.
func (c *Controller) Submit(term string) {
	c.dispatcher.Submit(term)
	c.changed()
}

// Receive applies a feed update. In remote mode, updates for a superseded
// term are discarded.
func (c *Controller) Receive(state domain.FeedState) {
	settled := !state.Loading && !state.Validating
	if !c.dispatcher.Deliver(state.Term, state.Forms, settled) {
		return
	}
	c.trigger.SetPagination(state.Pagination())
	if state.Err != nil {
		c.trigger.Rearm()
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.last = state
	c.received = true
	c.mu.Unlock()

	if state.Err != nil {
		logger.Warn("forms: fetch for %q failed: %v", state.Term, state.Err)
	}
	c.changed()
}

// AttachSentinel gives the load-more trigger the renderer's sentinel.
// Calling it again with a new sentinel replaces the old one.
func (c *Controller) AttachSentinel(s Sentinel) {
	c.trigger.Replace(s)
}

// DetachSentinel stops watching the sentinel.
func (c *Controller) DetachSentinel() {
	c.trigger.Detach()
}

// Observing reports whether the load-more trigger watches a sentinel.
func (c *Controller) Observing() bool {
	return c.trigger.Observing()
}

// Mode returns the search mode.
func (c *Controller) Mode() domain.SearchMode {
	return c.dispatcher.Mode()
}

// View builds the current list view.
func (c *Controller) View() ListView {
	search := c.dispatcher.State()
	searching := c.dispatcher.Searching()
	forms := c.dispatcher.Results()

	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.last
	// A remote error only counts for the term it was fetched for.
	failed := last.Err != nil &&
		(search.Mode == domain.SearchModeLocal || last.Term == search.CommittedTerm)
	failure := last.Err
	if !failed {
		failure = nil
	}
	if failed && len(last.Forms) == 0 {
		forms = nil
	}

	state := c.machine.step(displayInput{
		received:  c.received,
		loading:   last.Loading,
		searching: searching && !failed,
		rows:      len(forms),
		failed:    failed,
	})

	view := ListView{
		State:      state,
		LastGood:   c.machine.lastGood,
		Search:     search,
		Pagination: last.Pagination(),
		Total:      last.Total,
		Forms:      forms,
		Rows:       c.rowsLocked(forms),
		Err:        failure,
	}
	if len(c.sections) > 0 {
		view.Sectioned = true
		for _, group := range Group(forms, c.sections) {
			view.Sections = append(view.Sections, SectionView{
				Name: group.Name,
				Rows: c.rowsLocked(group.Forms),
			})
		}
	}
	return view
}

// Locale returns the locale used for dates.
func (c *Controller) Locale() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formatter.Locale()
}

// Dispose tears the controller down: the debounce timer is cancelled, the
// observer disconnected and no callbacks fire afterwards.
func (c *Controller) Dispose() {
	c.dispatcher.Dispose()
	c.trigger.Dispose()

	c.mu.Lock()
	c.disposed = true
	cancel := c.cancelLocale
	c.cancelLocale = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Controller) setLocale(locale string) {
	c.mu.Lock()
	if c.disposed || locale == "" || locale == c.formatter.Locale() {
		c.mu.Unlock()
		return
	}
	c.formatter = NewDateFormatter(locale)
	c.mu.Unlock()

	logger.Debug("forms: locale changed to %s", locale)
	c.changed()
}

func (c *Controller) rowsLocked(forms domain.ResultSet) []Row {
	rows := make([]Row, 0, len(forms))
	for _, f := range forms {
		rows = append(rows, Row{
			Identifier:             f.UUID,
			DisplayName:            f.Label(),
			LastCompletedFormatted: c.formatter.Format(f.LastCompleted),
			FormUUID:               f.UUID,
			EncounterUUID:          f.LatestEncounter(),
		})
	}
	return rows
}

func (c *Controller) changed() {
	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()

	if disposed || c.onChange == nil {
		return
	}
	c.onChange()
}
