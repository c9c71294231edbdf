package driven

import (
	"context"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

// FormSource fetches forms for a patient record.
// Backed by a FHIR server online and the SQLite snapshot offline.
type FormSource interface {
	// ListForms returns one page of forms matching the query.
	// A zero Limit returns every matching form.
	ListForms(ctx context.Context, query domain.FormQuery) (domain.FormPage, error)
}

// SnapshotStore persists a patient's forms for offline use.
type SnapshotStore interface {
	FormSource

	// SaveSnapshot replaces the stored forms for a patient.
	SaveSnapshot(ctx context.Context, patientUUID string, forms domain.ResultSet) error
}
