// Package search provides country suggestions and the country detail pipeline.
package search

import (
	"strings"
	"unicode/utf8"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/dashboard/render"
)

// Preset is the minimum term length and suggestion cap of a search box
type Preset struct {
	Min   int
	Limit int
}

// Search boxes of the dashboard
var (
	CountrySearch = Preset{Min: 1, Limit: 7}
	RiskSearch    = Preset{Min: 2, Limit: 5}
	VaccineSearch = Preset{Min: 1, Limit: 5}
)

type entry struct {
	lower string
	s     render.Suggestion
}

// Index is a searchable list of country names in their original order
type Index struct {
	entries []entry
}

// NewIndex indexes the countries; nameless rows are skipped
func NewIndex(countries []covid.Country) *Index {
	ix := &Index{entries: make([]entry, 0, len(countries))}
	for _, c := range countries {
		if c.Country == "" {
			continue
		}
		ix.entries = append(ix.entries, entry{
			lower: strings.ToLower(c.Country),
			s:     render.Suggestion{Name: c.Country, Flag: c.CountryInfo.Flag},
		})
	}
	return ix
}

// Len returns the number of indexed names
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Suggest returns up to limit case-insensitive substring matches, nil when the
// trimmed term is shorter than min
func (ix *Index) Suggest(term string, min, limit int) []render.Suggestion {
	term = strings.ToLower(strings.TrimSpace(term))
	if utf8.RuneCountInString(term) < min || term == "" || limit <= 0 {
		return nil
	}

	var out []render.Suggestion
	for _, e := range ix.entries {
		if strings.Contains(e.lower, term) {
			out = append(out, e.s)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// SuggestFor applies a preset
func (ix *Index) SuggestFor(term string, p Preset) []render.Suggestion {
	return ix.Suggest(term, p.Min, p.Limit)
}
