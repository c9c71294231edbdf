package forms

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/listing"
	"github.com/custodia-labs/patientforms/internal/core/ports/driving"
)

// mockFeed is a driving.FormFeed whose states are pushed by the test.
type mockFeed struct {
	mu        sync.Mutex
	subs      map[int]func(domain.FeedState)
	nextSub   int
	state     domain.FeedState
	strategy  domain.FetchStrategy
	searches  []string
	starts    int
	reloads   int
	loadMores atomic.Int32
	closed    bool
}

func newMockFeed() *mockFeed {
	return &mockFeed{subs: make(map[int]func(domain.FeedState))}
}

func (f *mockFeed) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
}

func (f *mockFeed) Search(term string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, term)
}

func (f *mockFeed) LoadMore() {
	f.loadMores.Add(1)
}

func (f *mockFeed) Reload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
}

func (f *mockFeed) Subscribe(fn func(domain.FeedState)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *mockFeed) State() domain.FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *mockFeed) Strategy() domain.FetchStrategy {
	return f.strategy
}

func (f *mockFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// push delivers state to every subscriber on the calling goroutine.
func (f *mockFeed) push(state domain.FeedState) {
	f.mu.Lock()
	f.state = state
	subs := make([]func(domain.FeedState), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

func (f *mockFeed) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// mockFormService hands out a single mockFeed.
type mockFormService struct {
	feed     *mockFeed
	requests []domain.FeedRequest
	err      error
}

func (m *mockFormService) OpenFeed(_ context.Context, req domain.FeedRequest) (driving.FormFeed, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	m.feed.strategy = req.Strategy
	return m.feed, nil
}

func (m *mockFormService) ListForms(context.Context, domain.FormQuery, bool) (domain.FormPage, error) {
	return domain.FormPage{}, nil
}

func (m *mockFormService) Sync(context.Context, string, string) (int, error) {
	return 0, nil
}

type openCall struct {
	patient   string
	form      domain.FormSummary
	encounter string
}

type mockActionService struct {
	mu    sync.Mutex
	opens []openCall
	err   error
}

func (m *mockActionService) OpenForm(_ context.Context, patient string, form domain.FormSummary, encounter string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens = append(m.opens, openCall{patient: patient, form: form, encounter: encounter})
	return m.err
}

func (m *mockActionService) History(context.Context, string, int) ([]domain.LaunchRecord, error) {
	return nil, nil
}

// manualClock fires debounce timers on demand.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (c *manualClock) AfterFunc(_ time.Duration, f func()) listing.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every pending timer.
func (c *manualClock) fire() {
	c.mu.Lock()
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}
