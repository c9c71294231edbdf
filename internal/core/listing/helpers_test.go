package listing

import (
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

// manualClock is a Clock whose time only moves when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs due callbacks in order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.fn()
	}
}

// Active returns the number of timers that have neither fired nor been stopped.
func (c *manualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeObserver records observations and lets tests deliver entries.
type fakeObserver struct {
	mu           sync.Mutex
	callback     func([]IntersectionEntry)
	threshold    float64
	observed     map[Sentinel]bool
	disconnected bool
	observeCalls int
}

// fakeObservers is an ObserverFactory that remembers every observer it created.
type fakeObservers struct {
	mu      sync.Mutex
	created []*fakeObserver
}

func (f *fakeObservers) factory(callback func([]IntersectionEntry), threshold float64) Observer {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := &fakeObserver{callback: callback, threshold: threshold, observed: map[Sentinel]bool{}}
	f.created = append(f.created, o)
	return o
}

func (f *fakeObservers) last() *fakeObserver {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

func (f *fakeObservers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (o *fakeObserver) Observe(target Sentinel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observed[target] = true
	o.observeCalls++
}

func (o *fakeObserver) Unobserve(target Sentinel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.observed, target)
}

func (o *fakeObserver) Disconnect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observed = map[Sentinel]bool{}
	o.disconnected = true
}

func (o *fakeObserver) watching() []Sentinel {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Sentinel, 0, len(o.observed))
	for s := range o.observed {
		out = append(out, s)
	}
	return out
}

// show delivers a visible entry for target regardless of observation state,
// as a late browser callback would.
func (o *fakeObserver) show(target Sentinel) {
	o.callback([]IntersectionEntry{{Target: target, Ratio: 1, Intersecting: true}})
}

func (o *fakeObserver) hide(target Sentinel) {
	o.callback([]IntersectionEntry{{Target: target, Ratio: 0, Intersecting: false}})
}

func forms(names ...string) domain.ResultSet {
	out := make(domain.ResultSet, 0, len(names))
	for _, n := range names {
		out = append(out, domain.FormSummary{UUID: "uuid-" + n, Name: n, Display: n})
	}
	return out
}

func labels(rs domain.ResultSet) []string {
	out := make([]string, 0, len(rs))
	for _, f := range rs {
		out = append(out, f.Label())
	}
	return out
}

// staticLocale is a LocaleSource tests can change.
type staticLocale struct {
	mu       sync.Mutex
	current  string
	handlers map[int]func(string)
	next     int
}

func newStaticLocale(locale string) *staticLocale {
	return &staticLocale{current: locale, handlers: map[int]func(string){}}
}

func (l *staticLocale) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *staticLocale) Subscribe(fn func(string)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.next
	l.next++
	l.handlers[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.handlers, id)
	}
}

func (l *staticLocale) set(locale string) {
	l.mu.Lock()
	l.current = locale
	handlers := make([]func(string), 0, len(l.handlers))
	for _, h := range l.handlers {
		handlers = append(handlers, h)
	}
	l.mu.Unlock()
	for _, h := range handlers {
		h(locale)
	}
}

func (l *staticLocale) subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handlers)
}
