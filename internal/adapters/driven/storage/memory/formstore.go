package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
)

// Ensure FormStore implements the interface.
var _ driven.SnapshotStore = (*FormStore)(nil)

// FormStore is an in-memory implementation of driven.SnapshotStore.
type FormStore struct {
	mu    sync.RWMutex
	forms map[string]domain.ResultSet
}

// NewFormStore creates a new in-memory form store.
func NewFormStore() *FormStore {
	return &FormStore{
		forms: make(map[string]domain.ResultSet),
	}
}

// SaveSnapshot replaces the stored forms for a patient.
func (s *FormStore) SaveSnapshot(_ context.Context, patientUUID string, forms domain.ResultSet) error {
	if patientUUID == "" {
		return fmt.Errorf("%w: patient UUID is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[patientUUID] = forms.Clone()
	return nil
}

// ListForms returns one page of a patient's forms in stored order.
// The search term is matched case-insensitively against the label and name.
func (s *FormStore) ListForms(_ context.Context, query domain.FormQuery) (domain.FormPage, error) {
	s.mu.RLock()
	stored := s.forms[query.PatientUUID]
	s.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(query.SearchTerm))
	matched := domain.ResultSet{}
	for _, f := range stored {
		if term == "" ||
			strings.Contains(strings.ToLower(f.Label()), term) ||
			strings.Contains(strings.ToLower(f.Name), term) {
			matched = append(matched, f)
		}
	}

	if query.Limit <= 0 {
		return domain.FormPage{Forms: matched.Clone(), Total: len(matched)}, nil
	}

	start := min(max(query.Offset, 0), len(matched))
	end := min(start+query.Limit, len(matched))
	return domain.FormPage{
		Forms:   matched[start:end].Clone(),
		Total:   len(matched),
		HasMore: end < len(matched),
	}, nil
}
