package listing

// Sentinel identifies the marker row whose visibility means "the user has
// scrolled near the end of the list". Renderers issue a new sentinel when
// they rebuild the list.
type Sentinel string

// IntersectionEntry reports how much of a sentinel is inside the viewport.
type IntersectionEntry struct {
	Target Sentinel

	// Ratio is the visible fraction of the sentinel, 0 to 1.
	Ratio float64

	// Intersecting is true when any part of the sentinel is visible.
	Intersecting bool
}

// Observer watches sentinels for viewport intersection changes.
//
// Implementations must deliver entries asynchronously with respect to
// Observe: the callback is never invoked from inside Observe, Unobserve or
// Disconnect.
type Observer interface {
	// Observe starts watching target. The first evaluation afterwards reports
	// its current intersection.
	Observe(target Sentinel)

	// Unobserve stops watching target.
	Unobserve(target Sentinel)

	// Disconnect stops watching every target. No entries are delivered after it returns.
	Disconnect()
}

// ObserverFactory creates an Observer that reports crossings of threshold to callback.
type ObserverFactory func(callback func([]IntersectionEntry), threshold float64) Observer
