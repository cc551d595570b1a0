package vaccine

import (
	"math"

	"github.com/wonny/covidwatch/internal/covid"
)

// Fallback shares used when the upstream omits the split of doses
const (
	peopleShare    = 0.6
	completedShare = 0.4
)

// Summary is the derived vaccination statistics of a country
type Summary struct {
	Total           int64
	People          int64
	Fully           int64
	PeoplePct       float64
	FullyPct        float64
	DosesPerHundred float64
}

// Stats derives the summary; missing people/completed counts are estimated from the total
func Stats(v covid.Vaccination) Summary {
	s := Summary{
		Total:  v.TotalVaccinations,
		People: v.PeopleVaccinated,
		Fully:  v.FullyVaccinated,
	}
	if s.People == 0 {
		s.People = int64(math.Floor(float64(s.Total) * peopleShare))
	}
	if s.Fully == 0 {
		s.Fully = int64(math.Floor(float64(s.Total) * completedShare))
	}

	if v.Population > 0 {
		pop := float64(v.Population)
		s.PeoplePct = float64(s.People) / pop * 100
		s.FullyPct = float64(s.Fully) / pop * 100
		s.DosesPerHundred = float64(s.Total) / pop * 100
	}
	return s
}

// GlobalEstimate approximates worldwide coverage from the recovery ratio,
// clamped to 0~100 and rounded to one decimal
func GlobalEstimate(g covid.Global) float64 {
	if g.Cases == 0 {
		return 0
	}
	pct := math.Round(float64(g.Recovered)/float64(g.Cases)*70*10) / 10
	return math.Min(100, math.Max(0, pct))
}
