package risk

import (
	"fmt"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/dashboard/format"
	"github.com/wonny/covidwatch/internal/dashboard/render"
)

// Policy denominators of the factor bars
const (
	MaxActivePerMillion = 10000.0
	MaxFatalityRate     = 5.0 // percent
	MaxTestsPerMillion  = 500000.0
)

// Severity is the colour bucket of a factor bar
type Severity int

const (
	SeverityVeryLow Severity = iota
	SeverityLow
	SeverityModerate
	SeverityHigh
	SeverityVeryHigh
)

var severityClasses = [...]string{
	"factor-very-low",
	"factor-low",
	"factor-moderate",
	"factor-high",
	"factor-very-high",
}

// Class returns the CSS class of the severity
func (s Severity) Class() string {
	if s < SeverityVeryLow || s > SeverityVeryHigh {
		return ""
	}
	return severityClasses[s]
}

// FactorPercentage scales value against max into a bar width.
// capped also floors the result at 0; both variants are capped at 100.
func FactorPercentage(value, max float64, capped bool) float64 {
	if max <= 0 {
		return 0
	}
	pct := value / max * 100
	if capped && pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// BarSeverityClass buckets a percentage; inverted flips it first (higher is better)
func BarSeverityClass(pct float64, inverted bool) Severity {
	if inverted {
		pct = 100 - pct
	}
	switch {
	case pct < 20:
		return SeverityVeryLow
	case pct < 40:
		return SeverityLow
	case pct < 60:
		return SeverityModerate
	case pct < 80:
		return SeverityHigh
	default:
		return SeverityVeryHigh
	}
}

// Factor is one computed risk factor bar
type Factor struct {
	Name     string
	Display  string
	Width    float64
	Severity Severity
	Missing  bool
}

// Factor names
const (
	FactorActive      = "Active Cases per Million"
	FactorFatality    = "Case Fatality Rate"
	FactorTesting     = "Tests per Million"
	FactorVaccination = "Vaccination Coverage"
)

// Factors builds the four factor bars.
// vaccinationPct is nil when no vaccination data is available.
func Factors(a covid.RiskAssessment, c covid.Country, vaccinationPct *float64) []Factor {
	active := FactorPercentage(a.ActiveCasesPerMillion, MaxActivePerMillion, false)
	fatality := FactorPercentage(a.CaseFatalityRate, MaxFatalityRate, false)
	testing := 100 - FactorPercentage(c.TestsPerOneMillion, MaxTestsPerMillion, true)

	factors := []Factor{
		{
			Name:     FactorActive,
			Display:  format.Compact(a.ActiveCasesPerMillion),
			Width:    active,
			Severity: BarSeverityClass(active, false),
		},
		{
			Name:     FactorFatality,
			Display:  fmt.Sprintf("%.2f%%", a.CaseFatalityRate),
			Width:    fatality,
			Severity: BarSeverityClass(fatality, false),
		},
		{
			Name:     FactorTesting,
			Display:  format.Compact(c.TestsPerOneMillion),
			Width:    testing,
			Severity: BarSeverityClass(testing, true),
		},
	}

	if vaccinationPct == nil {
		return append(factors, Factor{Name: FactorVaccination, Display: format.NA, Missing: true})
	}

	coverage := FactorPercentage(*vaccinationPct, 100, true)
	width := 100 - coverage
	return append(factors, Factor{
		Name:     FactorVaccination,
		Display:  format.Percent(coverage, 1),
		Width:    width,
		Severity: BarSeverityClass(width, true),
	})
}

// Bars converts factors into render bars
func Bars(factors []Factor) []render.Bar {
	out := make([]render.Bar, len(factors))
	for i, f := range factors {
		out[i] = render.Bar{Label: f.Name, Value: f.Display, Width: f.Width}
		if !f.Missing {
			out[i].Class = f.Severity.Class()
		}
	}
	return out
}
