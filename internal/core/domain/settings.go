package domain

import "time"

// Default settings values.
const (
	DefaultPageSize       = 50
	DefaultDebounce       = 500 * time.Millisecond
	DefaultLocale         = "en-GB"
	DefaultRequestsPerSec = 5.0
	DefaultBurst          = 10
	DefaultLaunchTemplate = "{base}/Questionnaire/{form}/$populate?subject=Patient/{patient}&encounter={encounter}"
	maxPageSize           = 500
	minDebounce           = 50 * time.Millisecond
)

// FHIRSettings configures the remote FHIR form source.
type FHIRSettings struct {
	// BaseURL is the FHIR server root, e.g. https://ehr.example.org/fhir.
	BaseURL string

	// TokenURL, ClientID and ClientSecret enable OAuth2 client credentials.
	// Leave ClientID empty for unauthenticated servers.
	TokenURL     string
	ClientID     string
	ClientSecret string

	// RequestsPerSecond and Burst bound request rate to the server.
	RequestsPerSecond float64
	Burst             int
}

// FormsSettings configures list behaviour.
type FormsSettings struct {
	PageSize          int
	InfiniteScrolling bool
	RemoteSearch      bool
	OrderBy           OrderBy
	Debounce          time.Duration
}

// Settings is the typed application configuration.
type Settings struct {
	FHIR     FHIRSettings
	Forms    FormsSettings
	Locale   string
	Sections []SectionConfig

	// LaunchTemplate is the URL opened for a selected form.
	LaunchTemplate string

	// DataDir holds the offline snapshot and launch history.
	DataDir string
}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() Settings {
	return Settings{
		FHIR: FHIRSettings{
			RequestsPerSecond: DefaultRequestsPerSec,
			Burst:             DefaultBurst,
		},
		Forms: FormsSettings{
			PageSize:          DefaultPageSize,
			InfiniteScrolling: true,
			RemoteSearch:      false,
			OrderBy:           OrderByName,
			Debounce:          DefaultDebounce,
		},
		Locale:         DefaultLocale,
		LaunchTemplate: DefaultLaunchTemplate,
	}
}

// Normalise replaces zero or out-of-range values with defaults.
func (s *Settings) Normalise() {
	def := DefaultSettings()
	if s.Forms.PageSize <= 0 {
		s.Forms.PageSize = def.Forms.PageSize
	}
	if s.Forms.PageSize > maxPageSize {
		s.Forms.PageSize = maxPageSize
	}
	if !s.Forms.OrderBy.IsValid() {
		s.Forms.OrderBy = def.Forms.OrderBy
	}
	if s.Forms.Debounce < minDebounce {
		s.Forms.Debounce = def.Forms.Debounce
	}
	if s.FHIR.RequestsPerSecond <= 0 {
		s.FHIR.RequestsPerSecond = def.FHIR.RequestsPerSecond
	}
	if s.FHIR.Burst <= 0 {
		s.FHIR.Burst = def.FHIR.Burst
	}
	if s.Locale == "" {
		s.Locale = def.Locale
	}
	if s.LaunchTemplate == "" {
		s.LaunchTemplate = def.LaunchTemplate
	}
}

// Strategy returns the fetch strategy implied by the forms settings.
func (s Settings) Strategy() FetchStrategy {
	return ChooseStrategy(s.Forms.RemoteSearch, s.Forms.InfiniteScrolling)
}

// HasFHIR reports whether a remote source is configured.
func (s Settings) HasFHIR() bool {
	return s.FHIR.BaseURL != ""
}
