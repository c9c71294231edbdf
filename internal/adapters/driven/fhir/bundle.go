package fhir

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Resource types read by this package.
const (
	resourceBundle                = "Bundle"
	resourceQuestionnaire         = "Questionnaire"
	resourceQuestionnaireResponse = "QuestionnaireResponse"
	resourceOperationOutcome      = "OperationOutcome"
)

// Bundle is a FHIR searchset Bundle.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Total        *int          `json:"total,omitempty"`
	Link         []BundleLink  `json:"link,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
	Search   *BundleSearch   `json:"search,omitempty"`
}

type BundleSearch struct {
	Mode string `json:"mode,omitempty"`
}

// NextURL returns the bundle's "next" link, or "".
func (b *Bundle) NextURL() string {
	for _, l := range b.Link {
		if l.Relation == "next" {
			return l.URL
		}
	}
	return ""
}

// decodeEntries unmarshals every matched entry of resourceType.
// Included and outcome entries are skipped.
func decodeEntries[T any](b *Bundle, resourceType string) ([]T, error) {
	if b.ResourceType != resourceBundle {
		return nil, fmt.Errorf("%w: got resourceType %q", ErrInvalidBundle, b.ResourceType)
	}
	out := make([]T, 0, len(b.Entry))
	for i, e := range b.Entry {
		if e.Search != nil && e.Search.Mode != "" && e.Search.Mode != "match" {
			continue
		}
		var head struct {
			ResourceType string `json:"resourceType"`
		}
		if err := json.Unmarshal(e.Resource, &head); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidBundle, i, err)
		}
		if head.ResourceType != resourceType {
			continue
		}
		var r T
		if err := json.Unmarshal(e.Resource, &r); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidBundle, i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Questionnaire is the subset of the Questionnaire resource used for listing.
type Questionnaire struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
	URL          string `json:"url,omitempty"`
	Name         string `json:"name,omitempty"`
	Title        string `json:"title,omitempty"`
	Status       string `json:"status,omitempty"`
}

// QuestionnaireResponse is the subset of the QuestionnaireResponse resource
// used to derive completion history.
type QuestionnaireResponse struct {
	ResourceType  string     `json:"resourceType"`
	ID            string     `json:"id"`
	Questionnaire string     `json:"questionnaire,omitempty"`
	Status        string     `json:"status,omitempty"`
	Authored      string     `json:"authored,omitempty"`
	Encounter     *Reference `json:"encounter,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
}

// OperationOutcome carries server-side error details.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

// Message joins the diagnostics of every issue.
func (o OperationOutcome) Message() string {
	parts := make([]string, 0, len(o.Issue))
	for _, issue := range o.Issue {
		switch {
		case issue.Diagnostics != "":
			parts = append(parts, issue.Diagnostics)
		case issue.Code != "":
			parts = append(parts, issue.Code)
		}
	}
	return strings.Join(parts, "; ")
}

// referenceID returns the id part of a literal reference such as
// "Encounter/123" or "http://host/fhir/Encounter/123".
func referenceID(ref, resourceType string) string {
	marker := resourceType + "/"
	i := strings.LastIndex(ref, marker)
	if i < 0 {
		return ""
	}
	id := ref[i+len(marker):]
	if j := strings.IndexAny(id, "/|"); j >= 0 {
		id = id[:j]
	}
	return id
}

// questionnaireKey normalises a QuestionnaireResponse.questionnaire value so
// it can be matched against a Questionnaire's id or canonical URL.
func questionnaireKey(canonical string) string {
	if id := referenceID(canonical, resourceQuestionnaire); id != "" {
		return id
	}
	if i := strings.Index(canonical, "|"); i >= 0 {
		return canonical[:i]
	}
	return canonical
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// parseDateTime parses a FHIR dateTime of any precision.
func parseDateTime(s string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
