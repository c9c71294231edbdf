package list

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/patientforms/internal/core/listing"
)

const deliveryTimeout = time.Second

func collect(t *testing.T) (func([]listing.IntersectionEntry), <-chan []listing.IntersectionEntry) {
	t.Helper()
	ch := make(chan []listing.IntersectionEntry, 16)
	return func(e []listing.IntersectionEntry) { ch <- e }, ch
}

func next(t *testing.T, ch <-chan []listing.IntersectionEntry) []listing.IntersectionEntry {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(deliveryTimeout):
		t.Fatal("no intersection entries delivered")
		return nil
	}
}

func assertQuiet(t *testing.T, ch <-chan []listing.IntersectionEntry) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected entries: %+v", e)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestViewport_ObserveReportsCurrentState(t *testing.T) {
	vp := NewViewport()
	vp.Report(map[listing.Sentinel]float64{"s1": 1})
	cb, ch := collect(t)

	obs := vp.NewObserver(cb, 0.1)
	obs.Observe("s1")

	entries := next(t, ch)
	require.Len(t, entries, 1)
	assert.Equal(t, listing.IntersectionEntry{Target: "s1", Ratio: 1, Intersecting: true}, entries[0])
}

func TestViewport_ReportsOnlyTransitions(t *testing.T) {
	vp := NewViewport()
	cb, ch := collect(t)
	obs := vp.NewObserver(cb, 0.1)
	obs.Observe("s1")

	initial := next(t, ch)
	assert.False(t, initial[0].Intersecting)

	vp.Report(map[listing.Sentinel]float64{"s1": 1})
	shown := next(t, ch)
	assert.True(t, shown[0].Intersecting)

	vp.Report(map[listing.Sentinel]float64{"s1": 1})
	assertQuiet(t, ch)

	vp.Report(nil)
	hidden := next(t, ch)
	assert.False(t, hidden[0].Intersecting)
	assert.Equal(t, 0.0, hidden[0].Ratio)
}

func TestViewport_BelowThresholdIsNotATransition(t *testing.T) {
	vp := NewViewport()
	cb, ch := collect(t)
	obs := vp.NewObserver(cb, 0.5)
	obs.Observe("s1")
	next(t, ch)

	vp.Report(map[listing.Sentinel]float64{"s1": 0.2})

	assertQuiet(t, ch)
}

func TestViewport_UnobserveAndDisconnect(t *testing.T) {
	vp := NewViewport()
	cb, ch := collect(t)
	obs := vp.NewObserver(cb, 0.1)
	obs.Observe("s1")
	next(t, ch)

	obs.Unobserve("s1")
	vp.Report(map[listing.Sentinel]float64{"s1": 1})
	assertQuiet(t, ch)

	assert.Equal(t, 1, vp.Observers())
	obs.Disconnect()
	assert.Equal(t, 0, vp.Observers())

	obs.Observe("s1")
	assertQuiet(t, ch)
}

func TestViewport_Ratio(t *testing.T) {
	vp := NewViewport()
	vp.Report(map[listing.Sentinel]float64{"s1": 0.5})

	assert.Equal(t, 0.5, vp.Ratio("s1"))
	assert.Equal(t, 0.0, vp.Ratio("other"))
}
