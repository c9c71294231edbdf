package domain

// SectionConfig is a named group of forms loaded from configuration.
// It is immutable once loaded.
type SectionConfig struct {
	// Name is the section heading.
	Name string

	// Members lists the form UUIDs or form names the section accepts.
	Members []string
}

// Matches reports whether the form belongs to this section by UUID or name.
func (s SectionConfig) Matches(form FormSummary) bool {
	for _, m := range s.Members {
		if m == "" {
			continue
		}
		if m == form.UUID || m == form.Name {
			return true
		}
	}
	return false
}

// FormSection is one bucket produced by grouping a result set.
type FormSection struct {
	Name  string
	Forms ResultSet
}
