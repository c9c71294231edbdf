package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

func listingServices(t *testing.T, mutate func(*domain.Settings)) *MockFormService {
	t.Helper()
	forms := &MockFormService{ListFormsFunc: func(context.Context, domain.FormQuery, bool) (domain.FormPage, error) {
		return domain.FormPage{Forms: sampleForms(), Total: 3}, nil
	}}
	settings := domain.DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}
	useServices(t, &Services{Forms: forms, Actions: &MockActionService{}, Settings: settings})
	return forms
}

func TestList_RequiresPatient(t *testing.T) {
	listingServices(t, nil)

	_, err := execute(t, "list")

	assert.ErrorIs(t, err, ErrPatientRequired)
}

func TestList_PrintsForms(t *testing.T) {
	forms := listingServices(t, nil)

	out, err := execute(t, "list", "--patient", "p1", "--visit", "v1")

	require.NoError(t, err)
	assert.Contains(t, out, "Vitals")
	assert.Contains(t, out, "2 Jan 2024")
	assert.Contains(t, out, "Intake")
	assert.Contains(t, out, "never")

	require.Len(t, forms.Queries, 1)
	assert.Equal(t, "p1", forms.Queries[0].PatientUUID)
	assert.Equal(t, "v1", forms.Queries[0].VisitUUID)
	assert.Equal(t, domain.OrderByName, forms.Queries[0].OrderBy)
	assert.Empty(t, forms.Queries[0].SearchTerm)
	assert.Equal(t, 0, forms.Queries[0].Limit)
}

func TestList_LocalSearch(t *testing.T) {
	forms := listingServices(t, nil)

	out, err := execute(t, "list", "--patient", "p1", "--search", "vit")

	require.NoError(t, err)
	assert.Contains(t, out, "Vitals")
	assert.NotContains(t, out, "Intake")
	assert.Empty(t, forms.Queries[0].SearchTerm)
}

func TestList_LocalSearchNoMatch(t *testing.T) {
	listingServices(t, nil)

	out, err := execute(t, "list", "--patient", "p1", "--search", "zzz")

	require.NoError(t, err)
	assert.Contains(t, out, `No forms match "zzz"`)
}

func TestList_RemoteSearch(t *testing.T) {
	forms := listingServices(t, func(s *domain.Settings) {
		s.Forms.RemoteSearch = true
	})

	out, err := execute(t, "list", "--patient", "p1", "--search", " int ")

	require.NoError(t, err)
	assert.Equal(t, "int", forms.Queries[0].SearchTerm)
	// The server's result is shown as returned.
	assert.Contains(t, out, "Discharge Summary")
}

func TestList_OfflineFiltersLocally(t *testing.T) {
	forms := listingServices(t, func(s *domain.Settings) {
		s.Forms.RemoteSearch = true
	})

	out, err := execute(t, "list", "--patient", "p1", "--offline", "--search", "vit")

	require.NoError(t, err)
	assert.True(t, forms.Offline[0])
	assert.Empty(t, forms.Queries[0].SearchTerm)
	assert.NotContains(t, out, "Intake")
}

func TestList_Limit(t *testing.T) {
	listingServices(t, nil)

	out, err := execute(t, "list", "--patient", "p1", "--limit", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "Vitals")
	assert.NotContains(t, out, "Intake")
}

func TestList_NegativeLimit(t *testing.T) {
	listingServices(t, nil)

	_, err := execute(t, "list", "--patient", "p1", "--limit", "-1")

	assert.Error(t, err)
}

func TestList_JSON(t *testing.T) {
	listingServices(t, nil)

	out, err := execute(t, "list", "--patient", "p1", "--json")
	require.NoError(t, err)

	var got []listedForm
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "q1", got[0].UUID)
	assert.Equal(t, "e1", got[0].Encounter)
	require.NotNil(t, got[0].LastCompleted)
	assert.Nil(t, got[1].LastCompleted)
}

func TestList_Sections(t *testing.T) {
	listingServices(t, func(s *domain.Settings) {
		s.Sections = []domain.SectionConfig{
			{Name: "Observations", Members: []string{"vitals"}},
			{Name: "Archive", Members: []string{"unknown"}},
		}
	})

	out, err := execute(t, "list", "--patient", "p1")

	require.NoError(t, err)
	assert.Contains(t, out, "Observations (1)")
	assert.Contains(t, out, "Archive (0)")
	assert.Contains(t, out, "No forms in this section")
	assert.NotContains(t, out, "Intake")
	assert.Less(t, strings.Index(out, "Observations"), strings.Index(out, "Archive"))
}

func TestList_JSONSections(t *testing.T) {
	listingServices(t, func(s *domain.Settings) {
		s.Sections = []domain.SectionConfig{{Name: "Observations", Members: []string{"q1"}}}
	})

	out, err := execute(t, "list", "--patient", "p1", "--json")
	require.NoError(t, err)

	var got []listedForm
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Observations", got[0].Section)
}

func TestList_ServiceError(t *testing.T) {
	forms := &MockFormService{ListFormsFunc: func(context.Context, domain.FormQuery, bool) (domain.FormPage, error) {
		return domain.FormPage{}, domain.ErrFetchFailed
	}}
	useServices(t, &Services{Forms: forms, Actions: &MockActionService{}})

	_, err := execute(t, "list", "--patient", "p1")

	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}
