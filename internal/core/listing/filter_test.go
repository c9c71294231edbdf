package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

func TestFilter_EmptyTermReturnsUnmodified(t *testing.T) {
	in := forms("Vitals", "Covid Screening", "Adult Triage")

	got := Filter("", in)

	assert.Equal(t, in, got)
	assert.Equal(t, in, Filter("   ", in))
}

func TestFilter_EmptyResultSet(t *testing.T) {
	assert.Equal(t, domain.ResultSet{}, Filter("vit", nil))
	assert.Equal(t, domain.ResultSet{}, Filter("vit", domain.ResultSet{}))
}

func TestFilter_NoMatches(t *testing.T) {
	got := Filter("zzz", forms("Vitals", "Triage"))

	assert.Empty(t, got)
}

func TestFilter_SubstringRanksBeforeWeakFuzzy(t *testing.T) {
	// "Vital Assessment Log" only matches "val" as scattered letters.
	in := forms("Vital Assessment Log", "Interval History")

	got := Filter("val", in)

	assert.Equal(t, []string{"Interval History", "Vital Assessment Log"}, labels(got))
}

func TestFilter_CaseInsensitive(t *testing.T) {
	got := Filter("TRIAGE", forms("Vitals", "Adult Triage"))

	assert.Equal(t, []string{"Adult Triage"}, labels(got))
}

func TestFilter_TiesKeepSourceOrder(t *testing.T) {
	in := forms("Triage A", "Triage B", "Triage C")

	got := Filter("Triage", in)

	assert.Equal(t, []string{"Triage A", "Triage B", "Triage C"}, labels(got))
}

func TestFilter_Idempotent(t *testing.T) {
	in := forms("Vitals", "Visit Note", "Covid Vaccination", "Vision Test", "Adult Triage")

	first := Filter("vi", in)
	second := Filter("vi", in)

	assert.Equal(t, first, second)
}

func TestFilter_FallsBackToName(t *testing.T) {
	in := domain.ResultSet{{UUID: "1", Name: "bmi-form"}, {UUID: "2", Name: "other", Display: "Other"}}

	got := Filter("bmi", in)

	assert.Len(t, got, 1)
	assert.Equal(t, "1", got[0].UUID)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	in := forms("b", "ab", "a")
	snapshot := in.Clone()

	Filter("a", in)

	assert.Equal(t, snapshot, in)
}
