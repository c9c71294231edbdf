package listing

import (
	"sync"
	"time"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// RemoteSearchFunc forwards a committed term to the form source. The caller
// delivers the narrowed result set back through SearchDispatcher.Deliver.
type RemoteSearchFunc func(term string)

// DispatcherConfig configures a SearchDispatcher.
type DispatcherConfig struct {
	// Debounce is the quiet period before a term is committed.
	// Zero uses domain.DefaultDebounce.
	Debounce time.Duration

	// Clock schedules the debounce timer. Nil uses SystemClock.
	Clock Clock

	// Remote switches the dispatcher to remote mode when set.
	Remote RemoteSearchFunc

	// OnCommit is called after each commit with the new search state.
	OnCommit func(domain.SearchState)
}

// SearchDispatcher owns the search term of one list. It debounces input and
// either filters the loaded forms locally or delegates to a remote search.
type SearchDispatcher struct {
	mu sync.Mutex

	clock    Clock
	debounce time.Duration
	remote   RemoteSearchFunc
	onCommit func(domain.SearchState)
	mode     domain.SearchMode

	raw       string
	committed string
	timer     Timer
	seq       uint64

	source    domain.ResultSet
	filtered  domain.ResultSet
	searching bool
	disposed  bool
}

// NewSearchDispatcher creates a dispatcher. The mode is fixed here: remote
// when cfg.Remote is set, local otherwise.
func NewSearchDispatcher(cfg DispatcherConfig) *SearchDispatcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = domain.DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}

	mode := domain.SearchModeLocal
	if cfg.Remote != nil {
		mode = domain.SearchModeRemote
	}

	return &SearchDispatcher{
		clock:    cfg.Clock,
		debounce: cfg.Debounce,
		remote:   cfg.Remote,
		onCommit: cfg.OnCommit,
		mode:     mode,
	}
}

// Submit records a raw input change and restarts the debounce window.
func (d *SearchDispatcher) Submit(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return
	}

	d.raw = term
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.debounce, func() { d.commit(seq) })
}

// commit settles the raw term scheduled under seq.
func (d *SearchDispatcher) commit(seq uint64) {
	d.mu.Lock()
	// A stopped timer may still fire if it raced with Stop; seq catches it.
	if d.disposed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil

	term := d.raw
	changed := term != d.committed
	d.committed = term

	var remote RemoteSearchFunc
	if d.mode == domain.SearchModeRemote {
		if changed {
			d.searching = true
			remote = d.remote
		}
	} else {
		d.filtered = Filter(term, d.source)
	}
	state := d.stateLocked()
	onCommit := d.onCommit
	d.mu.Unlock()

	logger.Debug("search: committed %q (mode=%s, changed=%t)", term, state.Mode, changed)

	if remote != nil {
		remote(term)
	}
	if onCommit != nil {
		onCommit(state)
	}
}

// Deliver hands the dispatcher the forms fetched for term. settled reports
// whether the source has finished loading for it.
//
// In local mode term is ignored and the forms become the set being filtered.
// In remote mode a delivery for anything but the committed term is stale and
// is discarded; Deliver then returns false.
func (d *SearchDispatcher) Deliver(term string, forms domain.ResultSet, settled bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return false
	}

	if d.mode == domain.SearchModeRemote {
		if term != d.committed {
			logger.Debug("search: dropping %v for %q, current term is %q", domain.ErrStaleResponse, term, d.committed)
			return false
		}
		d.source = forms.Clone()
		d.filtered = d.source
		if settled {
			d.searching = false
		}
		return true
	}

	d.source = forms.Clone()
	d.filtered = Filter(d.committed, d.source)
	return true
}

// Results returns the forms to display for the committed term.
func (d *SearchDispatcher) Results() domain.ResultSet {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.committed == "" || d.mode == domain.SearchModeRemote {
		return d.source.Clone()
	}
	return d.filtered.Clone()
}

// Searching reports whether a committed remote term awaits its results.
func (d *SearchDispatcher) Searching() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.searching
}

// Pending reports whether a debounce timer is scheduled.
func (d *SearchDispatcher) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// State returns the current search state.
func (d *SearchDispatcher) State() domain.SearchState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

// Mode returns the search mode, fixed at construction.
func (d *SearchDispatcher) Mode() domain.SearchMode {
	return d.mode
}

// Dispose cancels any pending commit. The dispatcher ignores all calls afterwards.
func (d *SearchDispatcher) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.disposed = true
}

func (d *SearchDispatcher) stateLocked() domain.SearchState {
	return domain.SearchState{
		RawTerm:       d.raw,
		CommittedTerm: d.committed,
		Mode:          d.mode,
	}
}
