package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

// mockFormSource implements driven.FormSource for testing.
type mockFormSource struct {
	ListFormsFunc func(ctx context.Context, query domain.FormQuery) (domain.FormPage, error)

	mu      sync.Mutex
	queries []domain.FormQuery
}

func (m *mockFormSource) ListForms(ctx context.Context, query domain.FormQuery) (domain.FormPage, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.ListFormsFunc != nil {
		return m.ListFormsFunc(ctx, query)
	}
	return domain.FormPage{}, nil
}

func (m *mockFormSource) calls() []domain.FormQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.FormQuery(nil), m.queries...)
}

// mockSnapshotStore implements driven.SnapshotStore for testing.
type mockSnapshotStore struct {
	*mockFormSource
	SaveSnapshotFunc func(ctx context.Context, patientUUID string, forms domain.ResultSet) error
}

func (m *mockSnapshotStore) SaveSnapshot(ctx context.Context, patientUUID string, forms domain.ResultSet) error {
	if m.SaveSnapshotFunc != nil {
		return m.SaveSnapshotFunc(ctx, patientUUID, forms)
	}
	return nil
}

// mockLauncher implements driven.FormLauncher for testing.
type mockLauncher struct {
	LaunchFunc func(ctx context.Context, patientUUID string, form domain.FormSummary, encounterUUID string) error
}

func (m *mockLauncher) Launch(ctx context.Context, patientUUID string, form domain.FormSummary, encounterUUID string) error {
	if m.LaunchFunc != nil {
		return m.LaunchFunc(ctx, patientUUID, form, encounterUUID)
	}
	return nil
}

// mockLaunchStore implements driven.LaunchStore for testing.
type mockLaunchStore struct {
	SaveLaunchFunc   func(ctx context.Context, record domain.LaunchRecord) error
	ListLaunchesFunc func(ctx context.Context, patientUUID string, limit int) ([]domain.LaunchRecord, error)

	saved []domain.LaunchRecord
}

func (m *mockLaunchStore) SaveLaunch(ctx context.Context, record domain.LaunchRecord) error {
	m.saved = append(m.saved, record)
	if m.SaveLaunchFunc != nil {
		return m.SaveLaunchFunc(ctx, record)
	}
	return nil
}

func (m *mockLaunchStore) ListLaunches(ctx context.Context, patientUUID string, limit int) ([]domain.LaunchRecord, error) {
	if m.ListLaunchesFunc != nil {
		return m.ListLaunchesFunc(ctx, patientUUID, limit)
	}
	return nil, nil
}

// pagedSource serves a fixed catalogue in pages, filtered by substring.
func pagedSource(names ...string) *mockFormSource {
	all := make(domain.ResultSet, 0, len(names))
	for _, n := range names {
		all = append(all, domain.FormSummary{UUID: "uuid-" + n, Name: n})
	}
	return &mockFormSource{
		ListFormsFunc: func(_ context.Context, q domain.FormQuery) (domain.FormPage, error) {
			matched := domain.ResultSet{}
			for _, f := range all {
				if q.SearchTerm == "" || strings.Contains(strings.ToLower(f.Name), strings.ToLower(q.SearchTerm)) {
					matched = append(matched, f)
				}
			}
			if q.Limit == 0 {
				return domain.FormPage{Forms: matched, Total: len(matched)}, nil
			}
			end := min(q.Offset+q.Limit, len(matched))
			start := min(q.Offset, end)
			return domain.FormPage{
				Forms:   matched[start:end],
				Total:   len(matched),
				HasMore: end < len(matched),
			}, nil
		},
	}
}

// gate blocks source calls until released, one release per call.
type gate struct {
	ch chan struct{}
}

func newGate() *gate { return &gate{ch: make(chan struct{})} }

func (g *gate) wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) release() { g.ch <- struct{}{} }
