package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/core/ports/driving"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// Ensure FormActionService implements the interface.
var _ driving.FormActionService = (*FormActionService)(nil)

// FormActionService opens forms and keeps a launch history.
type FormActionService struct {
	launcher driven.FormLauncher
	launches driven.LaunchStore
	now      func() time.Time
}

// NewFormActionService creates a new form action service.
// The launch store is optional; without it no history is kept.
func NewFormActionService(launcher driven.FormLauncher, launches driven.LaunchStore) *FormActionService {
	return &FormActionService{
		launcher: launcher,
		launches: launches,
		now:      time.Now,
	}
}

// OpenForm hands the form to the launcher and records the launch.
// A failure to record is logged and does not fail the open.
func (s *FormActionService) OpenForm(
	ctx context.Context, patientUUID string, form domain.FormSummary, encounterUUID string,
) error {
	if s.launcher == nil {
		return domain.ErrLauncherUnavailable
	}
	if patientUUID == "" || form.UUID == "" {
		return fmt.Errorf("%w: patient and form UUID are required", domain.ErrInvalidInput)
	}

	if err := s.launcher.Launch(ctx, patientUUID, form, encounterUUID); err != nil {
		return fmt.Errorf("open form %s: %w", form.UUID, err)
	}
	logger.Info("Opened form %s for patient %s (encounter=%q)", form.UUID, patientUUID, encounterUUID)

	if s.launches == nil {
		return nil
	}
	record := domain.LaunchRecord{
		ID:            uuid.NewString(),
		PatientUUID:   patientUUID,
		FormUUID:      form.UUID,
		FormName:      form.Label(),
		EncounterUUID: encounterUUID,
		LaunchedAt:    s.now().UTC(),
	}
	if err := s.launches.SaveLaunch(ctx, record); err != nil {
		logger.Warn("Failed to record launch of form %s: %v", form.UUID, err)
	}
	return nil
}

// History returns recent launches, newest first.
func (s *FormActionService) History(ctx context.Context, patientUUID string, limit int) ([]domain.LaunchRecord, error) {
	if s.launches == nil {
		return []domain.LaunchRecord{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	records, err := s.launches.ListLaunches(ctx, patientUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("list launches: %w", err)
	}
	return records, nil
}
