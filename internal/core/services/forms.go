package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/core/ports/driving"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// Ensure FormService implements the interface.
var _ driving.FormService = (*FormService)(nil)

// FormService lists a patient's forms from the remote source or the offline snapshot.
type FormService struct {
	remote   driven.FormSource
	snapshot driven.SnapshotStore
	pageSize int
}

// NewFormService creates a new form service.
// Either source may be nil; requests needing a missing source fail.
func NewFormService(remote driven.FormSource, snapshot driven.SnapshotStore, pageSize int) *FormService {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &FormService{
		remote:   remote,
		snapshot: snapshot,
		pageSize: pageSize,
	}
}

// OpenFeed creates a feed for req. The strategy in req decides the feed kind
// and cannot change for the feed's lifetime. The feed is not started.
func (s *FormService) OpenFeed(ctx context.Context, req domain.FeedRequest) (driving.FormFeed, error) {
	if req.PatientUUID == "" {
		return nil, fmt.Errorf("%w: patient UUID is required", domain.ErrInvalidInput)
	}
	if req.OrderBy != "" && !req.OrderBy.IsValid() {
		return nil, fmt.Errorf("%w: unknown order %q", domain.ErrInvalidInput, req.OrderBy)
	}
	source, err := s.source(req.Offline)
	if err != nil {
		return nil, err
	}
	if req.PageSize <= 0 {
		req.PageSize = s.pageSize
	}

	logger.Debug("forms: opening %s feed for patient %s (offline=%t)", req.Strategy, req.PatientUUID, req.Offline)

	switch req.Strategy {
	case domain.FetchIncremental:
		return NewPagedFeed(ctx, source, req), nil
	default:
		return NewFullFeed(ctx, source, req), nil
	}
}

// ListForms fetches forms in a single call. A zero query.Limit returns every match.
func (s *FormService) ListForms(ctx context.Context, query domain.FormQuery, offline bool) (domain.FormPage, error) {
	if query.PatientUUID == "" {
		return domain.FormPage{}, fmt.Errorf("%w: patient UUID is required", domain.ErrInvalidInput)
	}
	if query.Offset < 0 || query.Limit < 0 {
		return domain.FormPage{}, fmt.Errorf("%w: negative offset or limit", domain.ErrInvalidInput)
	}
	source, err := s.source(offline)
	if err != nil {
		return domain.FormPage{}, err
	}

	page, err := source.ListForms(ctx, query)
	if err != nil {
		return domain.FormPage{}, fmt.Errorf("list forms: %w", err)
	}
	if query.Limit == 0 {
		page.Forms.Sort(query.OrderBy)
	}
	return page, nil
}

// Sync copies every form for the patient from the remote source into the
// offline snapshot and returns the number stored.
func (s *FormService) Sync(ctx context.Context, patientUUID, visitUUID string) (int, error) {
	if patientUUID == "" {
		return 0, fmt.Errorf("%w: patient UUID is required", domain.ErrInvalidInput)
	}
	if s.remote == nil {
		return 0, fmt.Errorf("sync: %w: no remote source configured", domain.ErrSourceUnavailable)
	}
	if s.snapshot == nil {
		return 0, fmt.Errorf("sync: %w: no offline store configured", domain.ErrSourceUnavailable)
	}

	logger.Section("Form Sync")
	logger.Info("Syncing forms for patient %s", patientUUID)

	page, err := s.remote.ListForms(ctx, domain.FormQuery{
		PatientUUID: patientUUID,
		VisitUUID:   visitUUID,
	})
	if err != nil {
		return 0, fmt.Errorf("sync: %w", err)
	}
	if err := s.snapshot.SaveSnapshot(ctx, patientUUID, page.Forms); err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}

	logger.Info("Stored %d forms for patient %s", len(page.Forms), patientUUID)
	return len(page.Forms), nil
}

func (s *FormService) source(offline bool) (driven.FormSource, error) {
	if offline {
		if s.snapshot == nil {
			return nil, fmt.Errorf("%w: no offline store configured", domain.ErrOffline)
		}
		return s.snapshot, nil
	}
	if s.remote == nil {
		return nil, fmt.Errorf("%w: no remote source configured", domain.ErrSourceUnavailable)
	}
	return s.remote, nil
}
