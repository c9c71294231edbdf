package driving

import (
	"context"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

// FormActionService provides actions on listed forms for external actors.
// This is used by the TUI and CLI adapters.
type FormActionService interface {
	// OpenForm opens the form for the patient. An empty encounterUUID starts a new entry.
	OpenForm(ctx context.Context, patientUUID string, form domain.FormSummary, encounterUUID string) error

	// History returns recent launches, newest first.
	History(ctx context.Context, patientUUID string, limit int) ([]domain.LaunchRecord, error)
}
