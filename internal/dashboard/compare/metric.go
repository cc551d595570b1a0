// Package compare drives the side-by-side comparison of up to five countries.
package compare

import "github.com/wonny/covidwatch/internal/covid"

// Metric is a comparable field of covid.ComparisonEntry
type Metric string

const (
	MetricCases            Metric = "cases"
	MetricDeaths           Metric = "deaths"
	MetricRecovered        Metric = "recovered"
	MetricActive           Metric = "active"
	MetricCasesPerMillion  Metric = "casesPerOneMillion"
	MetricDeathsPerMillion Metric = "deathsPerOneMillion"
	MetricTestsPerMillion  Metric = "testsPerOneMillion"
	DefaultMetric                 = MetricCases
)

var metricNames = map[Metric]string{
	MetricCases:            "Total Cases",
	MetricDeaths:           "Total Deaths",
	MetricRecovered:        "Recovered",
	MetricActive:           "Active Cases",
	MetricCasesPerMillion:  "Cases per Million",
	MetricDeathsPerMillion: "Deaths per Million",
	MetricTestsPerMillion:  "Tests per Million",
}

// Metrics lists the metrics in dropdown order
func Metrics() []Metric {
	return []Metric{
		MetricCases,
		MetricDeaths,
		MetricRecovered,
		MetricActive,
		MetricCasesPerMillion,
		MetricDeathsPerMillion,
		MetricTestsPerMillion,
	}
}

// Known reports whether m is one of the fixed metrics
func (m Metric) Known() bool {
	_, ok := metricNames[m]
	return ok
}

// DisplayName returns the label of the metric; unknown keys pass through
func (m Metric) DisplayName() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return string(m)
}

// Value extracts the metric from an entry; unknown metrics yield 0
func (m Metric) Value(e covid.ComparisonEntry) float64 {
	switch m {
	case MetricCases:
		return float64(e.Cases)
	case MetricDeaths:
		return float64(e.Deaths)
	case MetricRecovered:
		return float64(e.Recovered)
	case MetricActive:
		return float64(e.Active)
	case MetricCasesPerMillion:
		return e.CasesPerOneMillion
	case MetricDeathsPerMillion:
		return e.DeathsPerOneMillion
	case MetricTestsPerMillion:
		return e.TestsPerOneMillion
	}
	return 0
}

// Palette colours series in selection order
var Palette = []string{
	"rgba(255, 99, 132, 0.7)",
	"rgba(54, 162, 235, 0.7)",
	"rgba(255, 206, 86, 0.7)",
	"rgba(75, 192, 192, 0.7)",
	"rgba(153, 102, 255, 0.7)",
}

// Point is one country's value of a metric
type Point struct {
	Label string
	Value float64
}

// Series is a metric across the selection, in selection order
type Series struct {
	Metric Metric
	Name   string
	Points []Point
}

// Labels returns the country labels
func (s Series) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

// Values returns the metric values
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// SeriesOf builds the series of metric m over entries
func SeriesOf(m Metric, entries []covid.ComparisonEntry) Series {
	s := Series{Metric: m, Name: m.DisplayName(), Points: make([]Point, len(entries))}
	for i, e := range entries {
		s.Points[i] = Point{Label: e.Country, Value: m.Value(e)}
	}
	return s
}
