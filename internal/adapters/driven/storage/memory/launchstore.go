package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
)

// Ensure LaunchStore implements the interface.
var _ driven.LaunchStore = (*LaunchStore)(nil)

// LaunchStore is an in-memory implementation of driven.LaunchStore.
type LaunchStore struct {
	mu      sync.RWMutex
	records []domain.LaunchRecord
}

// NewLaunchStore creates a new in-memory launch store.
func NewLaunchStore() *LaunchStore {
	return &LaunchStore{}
}

// SaveLaunch appends a launch record.
func (s *LaunchStore) SaveLaunch(_ context.Context, record domain.LaunchRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: launch ID is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == record.ID {
			return fmt.Errorf("%w: launch %s already recorded", domain.ErrInvalidInput, record.ID)
		}
	}
	s.records = append(s.records, record)
	return nil
}

// ListLaunches returns the most recent launches, newest first.
func (s *LaunchStore) ListLaunches(_ context.Context, patientUUID string, limit int) ([]domain.LaunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.LaunchRecord, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		if patientUUID == "" || s.records[i].PatientUUID == patientUUID {
			result = append(result, s.records[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LaunchedAt.After(result[j].LaunchedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
