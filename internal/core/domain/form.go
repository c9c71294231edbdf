package domain

import (
	"sort"
	"strings"
	"time"
)

// FormSummary is a clinical form as seen from one patient's record.
// It is owned by the form source; consumers only read it.
type FormSummary struct {
	// UUID is the unique identifier of the form definition.
	UUID string

	// Name is the machine name of the form (e.g. "vitals-and-biometrics").
	Name string

	// Display is the human-readable title. May be empty.
	Display string

	// LastCompleted is when the form was last filled in for the patient.
	// Nil when the patient has never completed it.
	LastCompleted *time.Time

	// EncounterUUIDs lists the encounters holding a completed copy of the form,
	// oldest first.
	EncounterUUIDs []string
}

// Label returns the display name, falling back to the form name.
func (f FormSummary) Label() string {
	if f.Display != "" {
		return f.Display
	}
	return f.Name
}

// LatestEncounter returns the most recent associated encounter, or "".
func (f FormSummary) LatestEncounter() string {
	if len(f.EncounterUUIDs) == 0 {
		return ""
	}
	return f.EncounterUUIDs[len(f.EncounterUUIDs)-1]
}

// ResultSet is an ordered sequence of forms for a given query.
// The order is the source's order unless a local filter re-ranked it.
type ResultSet []FormSummary

// Clone returns a copy of the result set that shares no backing array.
func (r ResultSet) Clone() ResultSet {
	if r == nil {
		return nil
	}
	out := make(ResultSet, len(r))
	copy(out, r)
	return out
}

// Sort orders the set in place. Forms never completed sort last when
// ordering by completion date; ties keep their current order.
func (r ResultSet) Sort(order OrderBy) {
	switch order {
	case OrderByLastCompleted:
		sort.SliceStable(r, func(i, j int) bool {
			a, b := r[i].LastCompleted, r[j].LastCompleted
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.After(*b)
			}
		})
	case OrderByName:
		sort.SliceStable(r, func(i, j int) bool {
			return strings.ToLower(r[i].Label()) < strings.ToLower(r[j].Label())
		})
	}
}

// OrderBy selects the ordering requested from a form source.
type OrderBy string

// Supported orderings.
const (
	// OrderByName sorts by display label, ascending.
	OrderByName OrderBy = "name"

	// OrderByLastCompleted sorts most recently completed first.
	OrderByLastCompleted OrderBy = "last_completed"
)

// IsValid returns true if the ordering is recognised.
func (o OrderBy) IsValid() bool {
	return o == OrderByName || o == OrderByLastCompleted
}

// FormQuery describes a single page request to a form source.
type FormQuery struct {
	// PatientUUID identifies the patient record. Required.
	PatientUUID string

	// VisitUUID scopes associated encounters to one visit. Optional.
	VisitUUID string

	// SearchTerm narrows forms by name on the source side. Optional.
	SearchTerm string

	// OrderBy is the requested ordering.
	OrderBy OrderBy

	// Offset is the number of forms to skip.
	Offset int

	// Limit is the page size. Zero means "all".
	Limit int
}

// FormPage is one page of forms returned by a source.
type FormPage struct {
	// Forms holds the forms on this page.
	Forms ResultSet

	// Total is the total number of forms matching the query, if known.
	Total int

	// HasMore reports whether pages remain after this one.
	HasMore bool
}

// LaunchRecord is a history entry written when a form is opened.
type LaunchRecord struct {
	ID            string
	PatientUUID   string
	FormUUID      string
	FormName      string
	EncounterUUID string
	LaunchedAt    time.Time
}
