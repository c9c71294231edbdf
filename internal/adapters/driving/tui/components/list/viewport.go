package list

import (
	"sync"

	"github.com/custodia-labs/patientforms/internal/core/listing"
)

// Viewport tracks which sentinels are on screen and serves as the
// intersection observer for the load-more trigger. The list reports
// visibility after every layout change; observers receive entries on a
// separate goroutine, in order.
type Viewport struct {
	mu        sync.Mutex
	visible   map[listing.Sentinel]float64
	observers map[*observer]struct{}
}

// NewViewport creates a viewport with nothing visible.
func NewViewport() *Viewport {
	return &Viewport{
		visible:   make(map[listing.Sentinel]float64),
		observers: make(map[*observer]struct{}),
	}
}

// NewObserver implements listing.ObserverFactory.
func (v *Viewport) NewObserver(callback func([]listing.IntersectionEntry), threshold float64) listing.Observer {
	o := &observer{
		vp:        v,
		callback:  callback,
		threshold: threshold,
		targets:   make(map[listing.Sentinel]bool),
	}
	v.mu.Lock()
	v.observers[o] = struct{}{}
	v.mu.Unlock()
	return o
}

// Report replaces the visible ratios. Sentinels not in visible count as hidden.
// Observers are told about every target whose intersection changed.
func (v *Viewport) Report(visible map[listing.Sentinel]float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.visible = make(map[listing.Sentinel]float64, len(visible))
	for s, r := range visible {
		v.visible[s] = r
	}

	for o := range v.observers {
		var entries []listing.IntersectionEntry
		for target, was := range o.targets {
			ratio := v.visible[target]
			if now := o.intersects(ratio); now != was {
				o.targets[target] = now
				entries = append(entries, entry(target, ratio))
			}
		}
		if len(entries) > 0 {
			o.enqueueLocked(entries)
		}
	}
}

// Ratio returns the last reported ratio for s.
func (v *Viewport) Ratio(s listing.Sentinel) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible[s]
}

// Observers returns the number of connected observers.
func (v *Viewport) Observers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.observers)
}

func entry(target listing.Sentinel, ratio float64) listing.IntersectionEntry {
	return listing.IntersectionEntry{Target: target, Ratio: ratio, Intersecting: ratio > 0}
}

// observer is one listing.Observer bound to a Viewport. Its state is
// guarded by the viewport's mutex.
type observer struct {
	vp        *Viewport
	callback  func([]listing.IntersectionEntry)
	threshold float64

	targets  map[listing.Sentinel]bool
	queue    [][]listing.IntersectionEntry
	draining bool
	closed   bool
}

func (o *observer) intersects(ratio float64) bool {
	return ratio > 0 && ratio >= o.threshold
}

// Observe starts watching target and reports its current intersection.
func (o *observer) Observe(target listing.Sentinel) {
	o.vp.mu.Lock()
	defer o.vp.mu.Unlock()
	if o.closed {
		return
	}
	ratio := o.vp.visible[target]
	o.targets[target] = o.intersects(ratio)
	o.enqueueLocked([]listing.IntersectionEntry{entry(target, ratio)})
}

// Unobserve stops watching target.
func (o *observer) Unobserve(target listing.Sentinel) {
	o.vp.mu.Lock()
	defer o.vp.mu.Unlock()
	delete(o.targets, target)
}

// Disconnect stops watching everything and drops queued entries.
func (o *observer) Disconnect() {
	o.vp.mu.Lock()
	defer o.vp.mu.Unlock()
	o.closed = true
	o.targets = make(map[listing.Sentinel]bool)
	o.queue = nil
	delete(o.vp.observers, o)
}

func (o *observer) enqueueLocked(entries []listing.IntersectionEntry) {
	o.queue = append(o.queue, entries)
	if o.draining {
		return
	}
	o.draining = true
	go o.drain()
}

func (o *observer) drain() {
	for {
		o.vp.mu.Lock()
		if o.closed || len(o.queue) == 0 {
			o.draining = false
			o.vp.mu.Unlock()
			return
		}
		batch := o.queue[0]
		o.queue = o.queue[1:]
		o.vp.mu.Unlock()

		o.callback(batch)
	}
}
