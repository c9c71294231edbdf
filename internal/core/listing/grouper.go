package listing

import "github.com/custodia-labs/patientforms/internal/core/domain"

// Group partitions forms into the configured sections, in configuration order.
//
// A form lands in every section whose members list its UUID or name. Forms
// matching no section are left out of every bucket; they remain in the
// ungrouped results. A section with no matching forms yields an empty bucket.
// Callers with no sections render the ungrouped list instead of calling Group.
func Group(forms domain.ResultSet, sections []domain.SectionConfig) []domain.FormSection {
	out := make([]domain.FormSection, 0, len(sections))
	for _, section := range sections {
		bucket := domain.ResultSet{}
		for _, form := range forms {
			if section.Matches(form) {
				bucket = append(bucket, form)
			}
		}
		out = append(out, domain.FormSection{Name: section.Name, Forms: bucket})
	}
	return out
}
