package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driving"
)

// MockFormService implements driving.FormService for testing.
type MockFormService struct {
	ListFormsFunc func(ctx context.Context, query domain.FormQuery, offline bool) (domain.FormPage, error)
	SyncFunc      func(ctx context.Context, patientUUID, visitUUID string) (int, error)

	Queries []domain.FormQuery
	Offline []bool
}

func (m *MockFormService) OpenFeed(context.Context, domain.FeedRequest) (driving.FormFeed, error) {
	return nil, domain.ErrSourceUnavailable
}

func (m *MockFormService) ListForms(ctx context.Context, query domain.FormQuery, offline bool) (domain.FormPage, error) {
	m.Queries = append(m.Queries, query)
	m.Offline = append(m.Offline, offline)
	if m.ListFormsFunc != nil {
		return m.ListFormsFunc(ctx, query, offline)
	}
	return domain.FormPage{}, nil
}

func (m *MockFormService) Sync(ctx context.Context, patientUUID, visitUUID string) (int, error) {
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx, patientUUID, visitUUID)
	}
	return 0, nil
}

// MockActionService implements driving.FormActionService for testing.
type MockActionService struct {
	HistoryFunc func(ctx context.Context, patientUUID string, limit int) ([]domain.LaunchRecord, error)
}

func (m *MockActionService) OpenForm(context.Context, string, domain.FormSummary, string) error {
	return nil
}

func (m *MockActionService) History(ctx context.Context, patientUUID string, limit int) ([]domain.LaunchRecord, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, patientUUID, limit)
	}
	return nil, nil
}

func sampleForms() domain.ResultSet {
	done := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	return domain.ResultSet{
		{UUID: "q1", Name: "vitals", Display: "Vitals", LastCompleted: &done, EncounterUUIDs: []string{"e1"}},
		{UUID: "q2", Name: "intake", Display: "Intake"},
		{UUID: "q3", Name: "discharge", Display: "Discharge Summary"},
	}
}

// useServices registers svc for the test and restores the builder afterwards.
func useServices(t *testing.T, svc *Services) {
	t.Helper()
	if svc.Settings.Forms.PageSize == 0 {
		svc.Settings = domain.DefaultSettings()
	}
	SetBuilder(func(context.Context, string) (*Services, error) {
		return svc, nil
	})
	t.Cleanup(func() { SetBuilder(nil) })
}

func resetFlags() {
	verbose = false
	configPath = ""
	patientUUID = ""
	visitUUID = ""
	offline = false
	listSearch = ""
	listJSON = false
	listLimit = 0
	launchesLimit = 20
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background())
	return buf.String(), err
}
