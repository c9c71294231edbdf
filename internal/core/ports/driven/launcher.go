package driven

import (
	"context"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

// FormLauncher opens a form for data entry outside the list.
type FormLauncher interface {
	// Launch opens the form for the patient, optionally editing an existing encounter.
	Launch(ctx context.Context, patientUUID string, form domain.FormSummary, encounterUUID string) error
}

// LaunchStore records form launches.
type LaunchStore interface {
	// SaveLaunch appends a launch record.
	SaveLaunch(ctx context.Context, record domain.LaunchRecord) error

	// ListLaunches returns the most recent launches for a patient, newest first.
	// An empty patientUUID lists launches for every patient.
	ListLaunches(ctx context.Context, patientUUID string, limit int) ([]domain.LaunchRecord, error)
}
