package fhir

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// Ensure FormSource implements the interface.
var _ driven.FormSource = (*FormSource)(nil)

const (
	// responsePageSize is the _count used when reading completion history.
	responsePageSize = 100

	// DefaultMaxPages bounds how many bundle pages one listing follows.
	DefaultMaxPages = 50
)

// FormSource lists a patient's forms from a FHIR server.
type FormSource struct {
	client   *Client
	maxPages int
}

// NewFormSource creates a form source backed by client.
func NewFormSource(client *Client) *FormSource {
	return &FormSource{client: client, maxPages: DefaultMaxPages}
}

// completion is the history of one questionnaire for the patient.
type completion struct {
	last       time.Time
	encounters []string
}

// ListForms returns one page of questionnaires with the patient's completion
// history merged in. Questionnaires and responses are fetched concurrently.
//
// Ordering by last completion is applied within the page, since the server
// cannot sort questionnaires by the patient's responses.
func (s *FormSource) ListForms(ctx context.Context, query domain.FormQuery) (domain.FormPage, error) {
	if query.PatientUUID == "" {
		return domain.FormPage{}, fmt.Errorf("%w: patient UUID is required", domain.ErrInvalidInput)
	}

	var (
		page        domain.FormPage
		definitions []Questionnaire
		history     map[string]*completion
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		definitions, page, err = s.questionnaires(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.completions(gctx, query.PatientUUID, query.VisitUUID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.FormPage{}, err
	}

	forms := make(domain.ResultSet, 0, len(definitions))
	for _, q := range definitions {
		form := domain.FormSummary{
			UUID:    q.ID,
			Name:    q.Name,
			Display: q.Title,
		}
		c := history[q.ID]
		if c == nil && q.URL != "" {
			c = history[questionnaireKey(q.URL)]
		}
		if c != nil {
			last := c.last
			form.LastCompleted = &last
			form.EncounterUUIDs = append([]string(nil), c.encounters...)
		}
		forms = append(forms, form)
	}
	if query.OrderBy == domain.OrderByLastCompleted {
		forms.Sort(domain.OrderByLastCompleted)
	}
	page.Forms = forms

	logger.Debug("fhir: %d forms (total=%d, more=%t) for patient %s", len(forms), page.Total, page.HasMore, query.PatientUUID)
	return page, nil
}

// questionnaires reads the active questionnaires for query. With a zero limit
// every page is followed and the offset is applied locally.
func (s *FormSource) questionnaires(ctx context.Context, query domain.FormQuery) ([]Questionnaire, domain.FormPage, error) {
	params := url.Values{}
	params.Set("status", "active")
	params.Set("_total", "accurate")
	if query.SearchTerm != "" {
		params.Set("title:contains", query.SearchTerm)
	}
	if query.OrderBy != domain.OrderByLastCompleted {
		params.Set("_sort", "title")
	}
	if query.Limit > 0 {
		params.Set("_count", strconv.Itoa(query.Limit))
		if query.Offset > 0 {
			params.Set("_offset", strconv.Itoa(query.Offset))
		}
	}

	next := s.client.searchURL(resourceQuestionnaire, params)
	var all []Questionnaire
	for pages := 0; next != ""; pages++ {
		if pages == s.maxPages {
			logger.Warn("fhir: stopped after %d questionnaire pages", pages)
			break
		}
		b, err := s.client.search(ctx, next)
		if err != nil {
			return nil, domain.FormPage{}, fmt.Errorf("search questionnaires: %w", err)
		}
		items, err := decodeEntries[Questionnaire](b, resourceQuestionnaire)
		if err != nil {
			return nil, domain.FormPage{}, fmt.Errorf("search questionnaires: %w", err)
		}
		all = append(all, items...)

		next = b.NextURL()
		if next != "" {
			if err := s.client.checkLink(next); err != nil {
				return nil, domain.FormPage{}, err
			}
		}

		if query.Limit > 0 {
			total := query.Offset + len(items)
			if b.Total != nil {
				total = *b.Total
			}
			return all, domain.FormPage{
				Total:   total,
				HasMore: next != "" || query.Offset+len(items) < total,
			}, nil
		}
	}

	if query.Offset > 0 {
		all = all[min(query.Offset, len(all)):]
	}
	return all, domain.FormPage{Total: len(all)}, nil
}

// completions reads the patient's completed responses, optionally scoped to
// one visit, keyed by questionnaire.
func (s *FormSource) completions(ctx context.Context, patientUUID, visitUUID string) (map[string]*completion, error) {
	params := url.Values{}
	params.Set("subject", "Patient/"+patientUUID)
	params.Set("status", "completed")
	params.Set("_sort", "authored")
	params.Set("_count", strconv.Itoa(responsePageSize))
	params.Set("_elements", "questionnaire,authored,encounter")
	if visitUUID != "" {
		params.Set("encounter.part-of", "Encounter/"+visitUUID)
	}

	next := s.client.searchURL(resourceQuestionnaireResponse, params)
	var responses []QuestionnaireResponse
	for pages := 0; next != ""; pages++ {
		if pages == s.maxPages {
			logger.Warn("fhir: stopped after %d response pages", pages)
			break
		}
		b, err := s.client.search(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("search responses: %w", err)
		}
		items, err := decodeEntries[QuestionnaireResponse](b, resourceQuestionnaireResponse)
		if err != nil {
			return nil, fmt.Errorf("search responses: %w", err)
		}
		responses = append(responses, items...)

		next = b.NextURL()
		if next != "" {
			if err := s.client.checkLink(next); err != nil {
				return nil, err
			}
		}
	}

	return buildHistory(responses), nil
}

// buildHistory folds responses into per-questionnaire history. Encounters
// are ordered oldest first by their latest response.
func buildHistory(responses []QuestionnaireResponse) map[string]*completion {
	type dated struct {
		key       string
		at        time.Time
		encounter string
	}
	rows := make([]dated, 0, len(responses))
	for _, r := range responses {
		key := questionnaireKey(r.Questionnaire)
		if key == "" {
			continue
		}
		at, ok := parseDateTime(r.Authored)
		if !ok {
			continue
		}
		var enc string
		if r.Encounter != nil {
			enc = referenceID(r.Encounter.Reference, "Encounter")
		}
		rows = append(rows, dated{key: key, at: at, encounter: enc})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].at.Before(rows[j].at)
	})

	history := make(map[string]*completion)
	for _, row := range rows {
		c := history[row.key]
		if c == nil {
			c = &completion{}
			history[row.key] = c
		}
		c.last = row.at
		if row.encounter == "" {
			continue
		}
		for i, e := range c.encounters {
			if e == row.encounter {
				c.encounters = append(c.encounters[:i], c.encounters[i+1:]...)
				break
			}
		}
		c.encounters = append(c.encounters, row.encounter)
	}
	return history
}
