package tracker

import (
	"time"

	"github.com/wonny/covidwatch/internal/covid"
)

// activeLadder awards points for active cases per million
var activeLadder = []struct {
	above  float64
	points float64
}{
	{10000, 5},
	{5000, 4},
	{1000, 3},
	{500, 2},
	{100, 1},
}

// fatalityLadder awards points for case fatality rate (%)
var fatalityLadder = []struct {
	above  float64
	points float64
}{
	{5, 5},
	{3, 4},
	{2, 3},
	{1, 2},
	{0.5, 1},
}

// Assess scores a country's risk on a 0~10 scale
// ⭐ SSOT: 위험도 점수 계산
func Assess(c covid.Country, now time.Time) covid.RiskAssessment {
	var activePerMillion float64
	if c.Population > 0 {
		activePerMillion = float64(c.Active) / float64(c.Population) * 1_000_000
	}
	cfr := c.FatalityRate()

	score := 0.0
	for _, step := range activeLadder {
		if activePerMillion > step.above {
			score += step.points
			break
		}
	}
	for _, step := range fatalityLadder {
		if cfr > step.above {
			score += step.points
			break
		}
	}

	return covid.RiskAssessment{
		Country:               c.Country,
		RiskScore:             score,
		RiskLevel:             covid.RiskLevelFor(score),
		ActiveCasesPerMillion: activePerMillion,
		CaseFatalityRate:      cfr,
		Timestamp:             now.UnixMilli(),
	}
}
