package listing

import (
	"sync"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// DefaultThreshold is the visible fraction of the sentinel that counts as "in view".
const DefaultThreshold = 0.1

// TriggerConfig configures an IncrementalLoadTrigger.
type TriggerConfig struct {
	// Enabled turns infinite loading on.
	Enabled bool

	// LoadMore asks the source for the next page.
	LoadMore func()

	// NewObserver creates the viewport observer.
	NewObserver ObserverFactory

	// Threshold is the visible fraction that fires a load, in (0, 1].
	// Other values use DefaultThreshold.
	Threshold float64
}

// IncrementalLoadTrigger calls LoadMore once each time the sentinel enters the
// viewport while more pages exist and no load is in flight.
//
// It only observes while Enabled, LoadMore and HasMore all hold; otherwise it
// is inert. The observer it creates is never shared.
type IncrementalLoadTrigger struct {
	mu sync.Mutex

	enabled     bool
	loadMore    func()
	newObserver ObserverFactory
	threshold   float64

	pagination domain.PaginationState
	observer   Observer

	attached   Sentinel
	isAttached bool
	wanted     Sentinel
	hasWanted  bool

	visible  bool
	awaiting bool
	disposed bool
}

// NewIncrementalLoadTrigger creates a trigger. It observes nothing until a
// sentinel is attached and pagination reports more pages.
func NewIncrementalLoadTrigger(cfg TriggerConfig) *IncrementalLoadTrigger {
	threshold := cfg.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &IncrementalLoadTrigger{
		enabled:     cfg.Enabled,
		loadMore:    cfg.LoadMore,
		newObserver: cfg.NewObserver,
		threshold:   threshold,
	}
}

// Attach sets the sentinel to observe. A previously attached sentinel is
// detached first.
func (t *IncrementalLoadTrigger) Attach(s Sentinel) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return
	}
	t.wanted = s
	t.hasWanted = true
	t.syncLocked()
}

// Replace swaps the observed sentinel for s, detaching the old one first.
func (t *IncrementalLoadTrigger) Replace(s Sentinel) {
	t.Attach(s)
}

// Detach stops observing the current sentinel.
func (t *IncrementalLoadTrigger) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.hasWanted = false
	t.detachLocked()
}

// SetPagination reports the source's pagination flags. When no more pages
// exist the trigger stops observing; when they reappear it re-attaches to the
// last sentinel it was given.
func (t *IncrementalLoadTrigger) SetPagination(p domain.PaginationState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return
	}
	// An unchanged snapshot may predate the load request; only a new page or
	// the end of an in-flight load releases it.
	prev := t.pagination
	if p.TotalLoaded != prev.TotalLoaded || (prev.LoadInFlight && !p.LoadInFlight) {
		t.awaiting = false
	}
	t.pagination = p
	t.syncLocked()
}

// Rearm releases a pending load request so the next sentinel entry fires
// again. The controller calls it when a fetch fails.
func (t *IncrementalLoadTrigger) Rearm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.awaiting = false
}

// Observing reports whether the trigger currently watches a sentinel.
func (t *IncrementalLoadTrigger) Observing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isAttached
}

// Active reports whether the trigger's conditions hold.
func (t *IncrementalLoadTrigger) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeLocked()
}

// Dispose disconnects the observer. Entries delivered afterwards are ignored.
func (t *IncrementalLoadTrigger) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disposed = true
	t.hasWanted = false
	t.disconnectLocked()
}

func (t *IncrementalLoadTrigger) activeLocked() bool {
	return !t.disposed &&
		t.enabled &&
		t.loadMore != nil &&
		t.newObserver != nil &&
		t.pagination.HasMore
}

// syncLocked reconciles the observation with the trigger's conditions.
func (t *IncrementalLoadTrigger) syncLocked() {
	if !t.activeLocked() {
		t.disconnectLocked()
		return
	}
	if !t.hasWanted {
		t.detachLocked()
		return
	}
	if t.isAttached && t.attached == t.wanted {
		return
	}

	t.detachLocked()
	if t.observer == nil {
		t.observer = t.newObserver(t.handle, t.threshold)
	}
	t.observer.Observe(t.wanted)
	t.attached = t.wanted
	t.isAttached = true
	t.visible = false
	logger.Debug("loadmore: observing sentinel %q", t.attached)
}

func (t *IncrementalLoadTrigger) detachLocked() {
	if !t.isAttached {
		return
	}
	if t.observer != nil {
		t.observer.Unobserve(t.attached)
	}
	t.isAttached = false
	t.visible = false
}

func (t *IncrementalLoadTrigger) disconnectLocked() {
	t.detachLocked()
	if t.observer != nil {
		t.observer.Disconnect()
		t.observer = nil
	}
}

// handle receives intersection entries from the observer.
func (t *IncrementalLoadTrigger) handle(entries []IntersectionEntry) {
	t.mu.Lock()
	if t.disposed || !t.isAttached {
		t.mu.Unlock()
		return
	}

	fire := false
	for _, e := range entries {
		if e.Target != t.attached {
			continue
		}
		visible := e.Intersecting && e.Ratio >= t.threshold
		if visible && !t.visible && !t.pagination.LoadInFlight && !t.awaiting && t.activeLocked() {
			fire = true
			t.awaiting = true
		}
		t.visible = visible
	}
	loadMore := t.loadMore
	loaded := t.pagination.TotalLoaded
	t.mu.Unlock()

	if fire {
		logger.Debug("loadmore: sentinel in view, requesting next page after %d forms", loaded)
		loadMore()
	}
}
