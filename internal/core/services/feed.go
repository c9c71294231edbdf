package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/core/ports/driving"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// Ensure the feeds implement the interface.
var (
	_ driving.FormFeed = (*FullFeed)(nil)
	_ driving.FormFeed = (*PagedFeed)(nil)
)

// feedBase holds the state and subscribers shared by both feed kinds.
//
// Subscribers are notified from a single goroutine with the latest state, so
// they observe states in order. Intermediate states may be coalesced.
type feedBase struct {
	source driven.FormSource
	req    domain.FeedRequest

	mu      sync.Mutex
	state   domain.FeedState
	subs    map[int]func(domain.FeedState)
	nextSub int
	gen     uint64
	cancel  context.CancelFunc
	closed  bool

	ctx    context.Context
	stop   context.CancelFunc
	notify chan struct{}
}

func newFeedBase(ctx context.Context, source driven.FormSource, req domain.FeedRequest) *feedBase {
	ctx, stop := context.WithCancel(ctx)
	b := &feedBase{
		source: source,
		req:    req,
		subs:   make(map[int]func(domain.FeedState)),
		ctx:    ctx,
		stop:   stop,
		notify: make(chan struct{}, 1),
		state:  domain.FeedState{Loading: true},
	}
	go b.deliver()
	return b
}

// Subscribe registers fn for state changes.
func (b *feedBase) Subscribe(fn func(domain.FeedState)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
		})
	}
}

// State returns a copy of the current state.
func (b *feedBase) State() domain.FeedState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Close cancels in-flight requests and drops subscribers.
func (b *feedBase) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.subs = make(map[int]func(domain.FeedState))
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.mu.Unlock()

	b.stop()
}

func (b *feedBase) snapshotLocked() domain.FeedState {
	s := b.state
	s.Forms = b.state.Forms.Clone()
	return s
}

// publishLocked schedules delivery of the current state.
func (b *feedBase) publishLocked() {
	if b.closed {
		return
	}
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *feedBase) deliver() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case <-b.notify:
		}

		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return
		}
		state := b.snapshotLocked()
		subs := make([]func(domain.FeedState), 0, len(b.subs))
		for _, fn := range b.subs {
			subs = append(subs, fn)
		}
		b.mu.Unlock()

		for _, fn := range subs {
			fn(state)
		}
	}
}

// beginLocked starts a new request generation, cancelling the one in flight.
func (b *feedBase) beginLocked() (context.Context, uint64) {
	if b.cancel != nil {
		b.cancel()
	}
	b.gen++
	ctx, cancel := context.WithCancel(b.ctx)
	b.cancel = cancel
	return ctx, b.gen
}

// finishLocked reports whether gen is still current and releases its context.
func (b *feedBase) finishLocked(gen uint64) bool {
	if b.closed || gen != b.gen {
		return false
	}
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	return true
}

func (b *feedBase) fetch(ctx context.Context, query domain.FormQuery) (domain.FormPage, error) {
	query.PatientUUID = b.req.PatientUUID
	query.VisitUUID = b.req.VisitUUID
	query.OrderBy = b.req.OrderBy

	page, err := b.source.ListForms(ctx, query)
	if err != nil {
		return domain.FormPage{}, fmt.Errorf("list forms: %w", err)
	}
	return page, nil
}

// FullFeed fetches every form for the patient in one request. Searching is
// left to the caller's local filter.
type FullFeed struct {
	*feedBase
}

// NewFullFeed creates a feed that loads all forms at once.
func NewFullFeed(ctx context.Context, source driven.FormSource, req domain.FeedRequest) *FullFeed {
	req.Strategy = domain.FetchAll
	return &FullFeed{feedBase: newFeedBase(ctx, source, req)}
}

// Start issues the initial fetch.
func (f *FullFeed) Start() {
	f.load()
}

// Search is a no-op; full feeds are filtered locally.
func (f *FullFeed) Search(string) {}

// LoadMore is a no-op; a full feed never has more pages.
func (f *FullFeed) LoadMore() {}

// Reload refetches every form. Loaded forms stay visible until the new ones arrive.
func (f *FullFeed) Reload() {
	f.load()
}

// Strategy returns domain.FetchAll.
func (f *FullFeed) Strategy() domain.FetchStrategy {
	return domain.FetchAll
}

func (f *FullFeed) load() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	ctx, gen := f.beginLocked()
	f.state.Loading = len(f.state.Forms) == 0
	f.state.Validating = true
	f.publishLocked()
	f.mu.Unlock()

	go func() {
		page, err := f.fetch(ctx, domain.FormQuery{})

		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.finishLocked(gen) {
			return
		}
		f.state.Loading = false
		f.state.Validating = false
		if err != nil {
			logger.Warn("feed: full fetch failed: %v", err)
			f.state.Err = err
			f.publishLocked()
			return
		}
		forms := page.Forms.Clone()
		forms.Sort(f.req.OrderBy)
		f.state.Forms = forms
		f.state.Total = len(forms)
		f.state.HasMore = false
		f.state.Err = nil
		logger.Debug("feed: loaded %d forms", len(forms))
		f.publishLocked()
	}()
}

// PagedFeed fetches forms one page at a time and supports server-side search.
type PagedFeed struct {
	*feedBase
	pageSize int
}

// NewPagedFeed creates a feed that loads pages of req.PageSize forms.
func NewPagedFeed(ctx context.Context, source driven.FormSource, req domain.FeedRequest) *PagedFeed {
	req.Strategy = domain.FetchIncremental
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &PagedFeed{feedBase: newFeedBase(ctx, source, req), pageSize: pageSize}
}

// Start issues the first page fetch.
func (f *PagedFeed) Start() {
	f.mu.Lock()
	term := f.state.Term
	f.mu.Unlock()
	f.Search(term)
}

// Search discards loaded pages and fetches the first page for term.
// Pages still in flight for an earlier term are dropped when they arrive.
func (f *PagedFeed) Search(term string) {
	f.restart(term, true)
}

// Reload refetches the first page for the current term.
func (f *PagedFeed) Reload() {
	f.mu.Lock()
	term := f.state.Term
	f.mu.Unlock()
	f.restart(term, false)
}

// LoadMore fetches the next page. It does nothing while a request is in
// flight or when no pages remain.
func (f *PagedFeed) LoadMore() {
	f.mu.Lock()
	if f.closed || f.state.Validating || !f.state.HasMore {
		f.mu.Unlock()
		return
	}
	ctx, gen := f.beginLocked()
	term := f.state.Term
	offset := len(f.state.Forms)
	f.state.Validating = true
	f.state.Err = nil
	f.publishLocked()
	f.mu.Unlock()

	logger.Debug("feed: loading page at offset %d for %q", offset, term)
	go f.page(ctx, gen, term, offset)
}

// Strategy returns domain.FetchIncremental.
func (f *PagedFeed) Strategy() domain.FetchStrategy {
	return domain.FetchIncremental
}

func (f *PagedFeed) restart(term string, clear bool) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	ctx, gen := f.beginLocked()
	if clear || term != f.state.Term {
		f.state.Forms = nil
		f.state.Total = 0
		f.state.HasMore = false
	}
	f.state.Term = term
	f.state.Loading = true
	f.state.Validating = true
	f.state.Err = nil
	f.publishLocked()
	f.mu.Unlock()

	go f.page(ctx, gen, term, 0)
}

func (f *PagedFeed) page(ctx context.Context, gen uint64, term string, offset int) {
	page, err := f.fetch(ctx, domain.FormQuery{
		SearchTerm: strings.TrimSpace(term),
		Offset:     offset,
		Limit:      f.pageSize,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.finishLocked(gen) || term != f.state.Term {
		logger.Debug("feed: dropping page at offset %d for %q: %v", offset, term, domain.ErrStaleResponse)
		return
	}

	f.state.Loading = false
	f.state.Validating = false
	if err != nil {
		logger.Warn("feed: page at offset %d failed: %v", offset, err)
		if offset == 0 {
			f.state.Forms = nil
		}
		f.state.Err = err
		f.publishLocked()
		return
	}

	if offset == 0 {
		f.state.Forms = page.Forms.Clone()
	} else {
		f.state.Forms = append(f.state.Forms, page.Forms...)
	}
	f.state.Total = page.Total
	f.state.HasMore = page.HasMore
	f.state.Err = nil
	logger.Debug("feed: %d of %d forms loaded for %q", len(f.state.Forms), page.Total, term)
	f.publishLocked()
}
