package listing

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

// labelSource adapts a result set to fuzzy.Source.
type labelSource domain.ResultSet

func (s labelSource) String(i int) string { return s[i].Label() }
func (s labelSource) Len() int            { return len(s) }

// Filter returns the forms whose label fuzzily matches term, best first.
//
// Forms containing term as a case-insensitive substring rank ahead of weaker
// fuzzy matches; within a tier higher fuzzy scores come first and equal scores
// keep source order. An empty term returns the forms unchanged.
func Filter(term string, forms domain.ResultSet) domain.ResultSet {
	term = strings.TrimSpace(term)
	if term == "" {
		return forms.Clone()
	}
	if len(forms) == 0 {
		return domain.ResultSet{}
	}

	type ranked struct {
		index     int
		substring bool
		score     int
	}

	lowerTerm := strings.ToLower(term)
	matches := fuzzy.FindFromNoSort(term, labelSource(forms))
	hits := make([]ranked, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, ranked{
			index:     m.Index,
			substring: strings.Contains(strings.ToLower(m.Str), lowerTerm),
			score:     m.Score,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].substring != hits[j].substring {
			return hits[i].substring
		}
		return hits[i].score > hits[j].score
	})

	out := make(domain.ResultSet, 0, len(hits))
	for _, h := range hits {
		out = append(out, forms[h.index])
	}
	return out
}
