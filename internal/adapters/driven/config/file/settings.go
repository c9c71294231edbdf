package file

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyFHIRBaseURL       = "fhir.base_url"
	KeyFHIRTokenURL      = "fhir.token_url"
	KeyFHIRClientID      = "fhir.client_id"
	KeyFHIRClientSecret  = "fhir.client_secret"
	KeyFHIRRequestsPerS  = "fhir.requests_per_second"
	KeyFHIRBurst         = "fhir.burst"
	KeyFormsPageSize     = "forms.page_size"
	KeyFormsInfinite     = "forms.infinite_scrolling"
	KeyFormsRemoteSearch = "forms.remote_search"
	KeyFormsOrderBy      = "forms.order_by"
	KeyFormsDebounceMS   = "forms.debounce_ms"
	KeyLocale            = "ui.locale"
	KeyLaunchTemplate    = "launch.url_template"
	KeyDataDir           = "data.dir"
	KeySections          = "sections"
)

// DecodeSettings reads typed settings from a config store. Missing keys take
// their defaults; malformed values are reported.
func DecodeSettings(store driven.ConfigStore) (domain.Settings, error) {
	s := domain.DefaultSettings()

	s.FHIR.BaseURL = store.GetString(KeyFHIRBaseURL)
	s.FHIR.TokenURL = store.GetString(KeyFHIRTokenURL)
	s.FHIR.ClientID = store.GetString(KeyFHIRClientID)
	s.FHIR.ClientSecret = store.GetString(KeyFHIRClientSecret)
	if _, ok := store.Get(KeyFHIRRequestsPerS); ok {
		s.FHIR.RequestsPerSecond = store.GetFloat(KeyFHIRRequestsPerS)
	}
	if _, ok := store.Get(KeyFHIRBurst); ok {
		s.FHIR.Burst = store.GetInt(KeyFHIRBurst)
	}

	if _, ok := store.Get(KeyFormsPageSize); ok {
		s.Forms.PageSize = store.GetInt(KeyFormsPageSize)
	}
	if _, ok := store.Get(KeyFormsInfinite); ok {
		s.Forms.InfiniteScrolling = store.GetBool(KeyFormsInfinite)
	}
	s.Forms.RemoteSearch = store.GetBool(KeyFormsRemoteSearch)
	if order := store.GetString(KeyFormsOrderBy); order != "" {
		s.Forms.OrderBy = domain.OrderBy(order)
		if !s.Forms.OrderBy.IsValid() {
			return s, fmt.Errorf("%w: %s must be %q or %q, got %q", domain.ErrInvalidInput,
				KeyFormsOrderBy, domain.OrderByName, domain.OrderByLastCompleted, order)
		}
	}
	if ms := store.GetInt(KeyFormsDebounceMS); ms > 0 {
		s.Forms.Debounce = time.Duration(ms) * time.Millisecond
	}

	if locale := store.GetString(KeyLocale); locale != "" {
		s.Locale = locale
	}
	if tmpl := store.GetString(KeyLaunchTemplate); tmpl != "" {
		s.LaunchTemplate = tmpl
	}
	s.DataDir = store.GetString(KeyDataDir)
	if s.DataDir == "" {
		s.DataDir = filepath.Join(filepath.Dir(store.Path()), "data")
	}

	sections, err := decodeSections(store)
	if err != nil {
		return s, err
	}
	s.Sections = sections

	s.Normalise()
	return s, nil
}

// decodeSections reads the [[sections]] array of tables.
func decodeSections(store driven.ConfigStore) ([]domain.SectionConfig, error) {
	raw, ok := store.Get(KeySections)
	if !ok {
		return nil, nil
	}
	tables, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array of tables", domain.ErrInvalidInput, KeySections)
	}

	sections := make([]domain.SectionConfig, 0, len(tables))
	for i, entry := range tables {
		table, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be a table", domain.ErrInvalidInput, KeySections, i)
		}
		name, _ := table["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("%w: %s[%d] needs a name", domain.ErrInvalidInput, KeySections, i)
		}
		section := domain.SectionConfig{Name: name}
		switch members := table["forms"].(type) {
		case nil:
		case []any:
			for _, m := range members {
				if str, ok := m.(string); ok {
					section.Members = append(section.Members, str)
				}
			}
		case []string:
			section.Members = append(section.Members, members...)
		default:
			return nil, fmt.Errorf("%w: %s[%d].forms must be a list of strings", domain.ErrInvalidInput, KeySections, i)
		}
		sections = append(sections, section)
	}
	return sections, nil
}
