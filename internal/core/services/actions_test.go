package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

func TestFormActionService_OpenForm(t *testing.T) {
	var gotPatient, gotEncounter string
	var gotForm domain.FormSummary
	launcher := &mockLauncher{LaunchFunc: func(_ context.Context, patientUUID string, form domain.FormSummary, encounterUUID string) error {
		gotPatient, gotForm, gotEncounter = patientUUID, form, encounterUUID
		return nil
	}}
	store := &mockLaunchStore{}
	svc := NewFormActionService(launcher, store)
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	form := domain.FormSummary{UUID: "f1", Name: "vitals", Display: "Vitals"}
	err := svc.OpenForm(context.Background(), "p1", form, "e1")

	require.NoError(t, err)
	assert.Equal(t, "p1", gotPatient)
	assert.Equal(t, form, gotForm)
	assert.Equal(t, "e1", gotEncounter)

	require.Len(t, store.saved, 1)
	rec := store.saved[0]
	_, parseErr := uuid.Parse(rec.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "p1", rec.PatientUUID)
	assert.Equal(t, "f1", rec.FormUUID)
	assert.Equal(t, "Vitals", rec.FormName)
	assert.Equal(t, "e1", rec.EncounterUUID)
	assert.Equal(t, fixed, rec.LaunchedAt)
}

func TestFormActionService_OpenForm_Errors(t *testing.T) {
	form := domain.FormSummary{UUID: "f1", Name: "Vitals"}

	t.Run("no launcher", func(t *testing.T) {
		svc := NewFormActionService(nil, nil)
		err := svc.OpenForm(context.Background(), "p1", form, "")
		assert.ErrorIs(t, err, domain.ErrLauncherUnavailable)
	})

	t.Run("missing ids", func(t *testing.T) {
		svc := NewFormActionService(&mockLauncher{}, nil)
		assert.ErrorIs(t, svc.OpenForm(context.Background(), "", form, ""), domain.ErrInvalidInput)
		assert.ErrorIs(t, svc.OpenForm(context.Background(), "p1", domain.FormSummary{}, ""), domain.ErrInvalidInput)
	})

	t.Run("launch fails", func(t *testing.T) {
		launchErr := errors.New("no browser")
		store := &mockLaunchStore{}
		svc := NewFormActionService(&mockLauncher{LaunchFunc: func(context.Context, string, domain.FormSummary, string) error {
			return launchErr
		}}, store)

		err := svc.OpenForm(context.Background(), "p1", form, "")

		assert.ErrorIs(t, err, launchErr)
		assert.Empty(t, store.saved, "failed launches are not recorded")
	})

	t.Run("record fails", func(t *testing.T) {
		store := &mockLaunchStore{SaveLaunchFunc: func(context.Context, domain.LaunchRecord) error {
			return errors.New("locked")
		}}
		svc := NewFormActionService(&mockLauncher{}, store)

		assert.NoError(t, svc.OpenForm(context.Background(), "p1", form, ""))
	})
}

func TestFormActionService_History(t *testing.T) {
	var gotLimit int
	store := &mockLaunchStore{ListLaunchesFunc: func(_ context.Context, _ string, limit int) ([]domain.LaunchRecord, error) {
		gotLimit = limit
		return []domain.LaunchRecord{{ID: "1"}}, nil
	}}
	svc := NewFormActionService(&mockLauncher{}, store)

	records, err := svc.History(context.Background(), "p1", 0)

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 20, gotLimit)
}

func TestFormActionService_History_NoStore(t *testing.T) {
	svc := NewFormActionService(&mockLauncher{}, nil)

	records, err := svc.History(context.Background(), "p1", 5)

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFormActionService_History_Error(t *testing.T) {
	store := &mockLaunchStore{ListLaunchesFunc: func(context.Context, string, int) ([]domain.LaunchRecord, error) {
		return nil, domain.ErrSourceUnavailable
	}}
	svc := NewFormActionService(&mockLauncher{}, store)

	_, err := svc.History(context.Background(), "p1", 5)

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
