package listing

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

func newTestTrigger(enabled bool) (*IncrementalLoadTrigger, *fakeObservers, *atomic.Int32) {
	obs := &fakeObservers{}
	calls := &atomic.Int32{}
	trig := NewIncrementalLoadTrigger(TriggerConfig{
		Enabled:     enabled,
		LoadMore:    func() { calls.Add(1) },
		NewObserver: obs.factory,
	})
	return trig, obs, calls
}

func TestNewIncrementalLoadTrigger_Threshold(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "zero uses default", in: 0, want: DefaultThreshold},
		{name: "negative uses default", in: -1, want: DefaultThreshold},
		{name: "above one uses default", in: 1.5, want: DefaultThreshold},
		{name: "valid kept", in: 0.5, want: 0.5},
		{name: "one kept", in: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trig := NewIncrementalLoadTrigger(TriggerConfig{Threshold: tt.in})
			assert.Equal(t, tt.want, trig.threshold)
		})
	}
}

func TestIncrementalLoadTrigger_InertWhenDisabled(t *testing.T) {
	trig, obs, _ := newTestTrigger(false)

	trig.Attach("s1")
	trig.SetPagination(domain.PaginationState{HasMore: true})

	assert.False(t, trig.Active())
	assert.False(t, trig.Observing())
	assert.Equal(t, 0, obs.count())
}

func TestIncrementalLoadTrigger_InertWithoutMorePages(t *testing.T) {
	trig, obs, _ := newTestTrigger(true)

	trig.Attach("s1")
	trig.SetPagination(domain.PaginationState{TotalLoaded: 10, HasMore: false})

	assert.False(t, trig.Observing())
	assert.Equal(t, 0, obs.count())
}

func TestIncrementalLoadTrigger_InertWithoutLoadMore(t *testing.T) {
	obs := &fakeObservers{}
	trig := NewIncrementalLoadTrigger(TriggerConfig{Enabled: true, NewObserver: obs.factory})

	trig.Attach("s1")
	trig.SetPagination(domain.PaginationState{HasMore: true})

	assert.False(t, trig.Observing())
}

func TestIncrementalLoadTrigger_ObservesWhenActive(t *testing.T) {
	trig, obs, _ := newTestTrigger(true)

	trig.SetPagination(domain.PaginationState{HasMore: true})
	assert.False(t, trig.Observing(), "no sentinel yet")

	trig.Attach("s1")

	require.True(t, trig.Observing())
	require.Equal(t, 1, obs.count())
	assert.Equal(t, []Sentinel{"s1"}, obs.last().watching())
	assert.Equal(t, DefaultThreshold, obs.last().threshold)
}

func TestIncrementalLoadTrigger_FiresOncePerEntry(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	trig.Attach("s1")

	obs.last().show("s1")
	obs.last().show("s1")

	assert.Equal(t, int32(1), calls.Load())
}

func TestIncrementalLoadTrigger_NoDuplicateWhileInFlight(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	trig.Attach("s1")

	obs.last().show("s1")
	require.Equal(t, int32(1), calls.Load())

	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true, LoadInFlight: true})
	obs.last().hide("s1")
	obs.last().show("s1")

	assert.Equal(t, int32(1), calls.Load(), "load in flight suppresses another request")
}

func TestIncrementalLoadTrigger_NoDuplicateBeforePaginationReported(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	trig.Attach("s1")

	obs.last().show("s1")
	obs.last().hide("s1")
	obs.last().show("s1")

	assert.Equal(t, int32(1), calls.Load(), "waits for the source to report the load")
}

func TestIncrementalLoadTrigger_UnchangedSnapshotKeepsRequestPending(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	trig.Attach("s1")

	obs.last().show("s1")
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	obs.last().hide("s1")
	obs.last().show("s1")

	assert.Equal(t, int32(1), calls.Load(), "a snapshot queued before the load does not release it")
}

func TestIncrementalLoadTrigger_FiresAgainAfterLoadSettles(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	trig.Attach("s1")

	obs.last().show("s1")
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true, LoadInFlight: true})
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	obs.last().hide("s1")
	obs.last().show("s1")

	assert.Equal(t, int32(2), calls.Load())
}

func TestIncrementalLoadTrigger_Rearm(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	trig.Attach("s1")

	obs.last().show("s1")
	trig.Rearm()
	obs.last().hide("s1")
	obs.last().show("s1")

	assert.Equal(t, int32(2), calls.Load())
}

func TestIncrementalLoadTrigger_FiresAgainAfterPageArrives(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	trig.Attach("s1")

	obs.last().show("s1")
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true, LoadInFlight: true})
	trig.SetPagination(domain.PaginationState{TotalLoaded: 100, HasMore: true})

	// The list re-renders with a new sentinel below the appended page.
	trig.Replace("s2")
	obs.last().show("s2")

	assert.Equal(t, int32(2), calls.Load())
}

func TestIncrementalLoadTrigger_ReenterSameSentinel(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	trig.Attach("s1")

	obs.last().show("s1")
	trig.SetPagination(domain.PaginationState{TotalLoaded: 100, HasMore: true})
	obs.last().show("s1")
	assert.Equal(t, int32(1), calls.Load(), "still visible is not a new entry")

	obs.last().hide("s1")
	obs.last().show("s1")
	assert.Equal(t, int32(2), calls.Load())
}

func TestIncrementalLoadTrigger_BelowThresholdIgnored(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{HasMore: true})
	trig.Attach("s1")

	obs.last().callback([]IntersectionEntry{{Target: "s1", Ratio: 0.05, Intersecting: true}})

	assert.Equal(t, int32(0), calls.Load())
}

func TestIncrementalLoadTrigger_ReplaceDetachesOld(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{HasMore: true})
	trig.Attach("s1")

	trig.Replace("s2")

	require.Equal(t, 1, obs.count(), "observer reused")
	assert.Equal(t, []Sentinel{"s2"}, obs.last().watching())

	obs.last().show("s1")
	assert.Equal(t, int32(0), calls.Load(), "entries for the old sentinel are ignored")
}

func TestIncrementalLoadTrigger_ReplaceSameSentinelNoop(t *testing.T) {
	trig, obs, _ := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{HasMore: true})
	trig.Attach("s1")
	trig.Replace("s1")

	assert.Equal(t, 1, obs.last().observeCalls)
}

func TestIncrementalLoadTrigger_HasMoreFalseDisconnects(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{TotalLoaded: 50, HasMore: true})
	trig.Attach("s1")
	first := obs.last()

	trig.SetPagination(domain.PaginationState{TotalLoaded: 72, HasMore: false})

	assert.False(t, trig.Observing())
	assert.True(t, first.disconnected)
	assert.Empty(t, first.watching())

	first.show("s1")
	assert.Equal(t, int32(0), calls.Load())
}

func TestIncrementalLoadTrigger_ReattachesWhenMorePagesReturn(t *testing.T) {
	trig, obs, _ := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{HasMore: true})
	trig.Attach("s1")
	trig.SetPagination(domain.PaginationState{HasMore: false})

	// A reload resets the feed and more pages become available again.
	trig.SetPagination(domain.PaginationState{HasMore: true})

	assert.True(t, trig.Observing())
	assert.Equal(t, 2, obs.count(), "a fresh observer after disconnect")
	assert.Equal(t, []Sentinel{"s1"}, obs.last().watching())
}

func TestIncrementalLoadTrigger_Detach(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{HasMore: true})
	trig.Attach("s1")

	trig.Detach()

	assert.False(t, trig.Observing())
	assert.Empty(t, obs.last().watching())

	obs.last().show("s1")
	assert.Equal(t, int32(0), calls.Load())

	trig.SetPagination(domain.PaginationState{HasMore: true})
	assert.False(t, trig.Observing(), "stays detached until a new sentinel is attached")
}

func TestIncrementalLoadTrigger_DisposeStopsDelivery(t *testing.T) {
	trig, obs, calls := newTestTrigger(true)
	trig.SetPagination(domain.PaginationState{HasMore: true})
	trig.Attach("s1")
	o := obs.last()

	trig.Dispose()

	assert.True(t, o.disconnected)
	assert.NotPanics(t, func() { o.show("s1") })
	assert.Equal(t, int32(0), calls.Load())

	trig.Attach("s2")
	trig.SetPagination(domain.PaginationState{HasMore: true})
	assert.False(t, trig.Observing())
	assert.Equal(t, 1, obs.count())
}
