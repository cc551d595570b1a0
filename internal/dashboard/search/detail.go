package search

import (
	"context"
	"fmt"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/dashboard"
	"github.com/wonny/covidwatch/internal/dashboard/format"
	"github.com/wonny/covidwatch/internal/dashboard/render"
	"github.com/wonny/covidwatch/internal/dashboard/risk"
	"github.com/wonny/covidwatch/pkg/logger"
)

// Messages shown by the detail view
const (
	MsgLoading = "Loading country data..."
)

// Outcome reports how far the detail pipeline got
type Outcome int

const (
	// Failed means the country itself could not be loaded
	Failed Outcome = iota
	// CountryOnly means the history failed, so no charts and no risk
	CountryOnly
	// NoRisk means country and history rendered, risk shows N/A
	NoRisk
	// Complete means every stage succeeded
	Complete
)

func (o Outcome) String() string {
	switch o {
	case Failed:
		return "failed"
	case CountryOnly:
		return "country-only"
	case NoRisk:
		return "no-risk"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Fetcher loads the three stages of the detail view
type Fetcher interface {
	Country(ctx context.Context, name string) (covid.Country, error)
	Historical(ctx context.Context, name string, days int) (covid.Historical, error)
	RiskAssessment(ctx context.Context, name string) (covid.RiskAssessment, error)
}

// Renderer is the output port of the detail view
type Renderer interface {
	render.DetailRenderer
	render.StatusRenderer
}

// Detail runs country -> historical -> risk, one stage after the other
type Detail struct {
	fetcher  Fetcher
	renderer Renderer
	logger   *logger.Logger
	days     int
	fence    dashboard.Fence
}

// NewDetail creates the detail pipeline
func NewDetail(f Fetcher, r Renderer, log *logger.Logger) *Detail {
	return &Detail{
		fetcher:  f,
		renderer: r,
		logger:   log.Component("search"),
	}
}

// WithDays sets the history window; 0 leaves the backend default
func (d *Detail) WithDays(days int) *Detail {
	d.days = days
	return d
}

// Load runs the pipeline for name. Only a country failure is returned as an error;
// later stages degrade the view instead.
func (d *Detail) Load(ctx context.Context, name string) (Outcome, error) {
	id := d.fence.Next()
	d.renderer.ShowLoading(MsgLoading)

	country, err := d.fetcher.Country(ctx, name)
	if err != nil {
		if !d.fence.Current(id) {
			return Failed, dashboard.ErrSuperseded
		}
		d.logger.WithError(err).WithField("country", name).Warn("Error fetching country data")
		d.renderer.ShowError(fmt.Sprintf("Error loading data for %s", name), func() {
			_, _ = d.Load(context.Background(), name)
		})
		return Failed, fmt.Errorf("country: %w", err)
	}
	if !d.fence.Current(id) {
		return Failed, dashboard.ErrSuperseded
	}

	history, err := d.fetcher.Historical(ctx, name, d.days)
	if err != nil {
		d.logger.WithError(err).WithField("country", name).Warn("Error fetching historical data")
		return d.show(id, CountryOnly, BuildPanel(country, nil, nil))
	}
	if !d.fence.Current(id) {
		return Failed, dashboard.ErrSuperseded
	}

	assessment, err := d.fetcher.RiskAssessment(ctx, name)
	if err != nil {
		d.logger.WithError(err).WithField("country", name).Warn("Error fetching risk data")
		return d.show(id, NoRisk, BuildPanel(country, &history, nil))
	}

	return d.show(id, Complete, BuildPanel(country, &history, &assessment))
}

func (d *Detail) show(id uint64, outcome Outcome, panel render.DetailPanel) (Outcome, error) {
	if !d.fence.Current(id) {
		return Failed, dashboard.ErrSuperseded
	}
	d.renderer.RenderDetail(panel)
	return outcome, nil
}

// BuildPanel assembles the detail view model; history and assessment are optional
func BuildPanel(c covid.Country, history *covid.Historical, a *covid.RiskAssessment) render.DetailPanel {
	panel := render.DetailPanel{
		Country:    c.Country,
		Flag:       c.CountryInfo.Flag,
		Population: "Population: " + format.Number(c.Population),
		Stats: []render.Stat{
			{Label: "Total Cases", Value: format.Number(c.Cases)},
			{Label: "Deaths", Value: format.Number(c.Deaths)},
			{Label: "Recovered", Value: format.Number(c.Recovered)},
			{Label: "Active", Value: format.Number(c.Active)},
			{Label: "Tests", Value: format.Number(c.Tests)},
			{Label: "Cases per Million", Value: format.Decimal(c.CasesPerOneMillion)},
			{Label: "Deaths per Million", Value: format.Decimal(c.DeathsPerOneMillion)},
			{Label: "Tests per Million", Value: format.Decimal(c.TestsPerOneMillion)},
			{Label: "Recovery Rate", Value: format.Percent(c.RecoveryRate(), 2)},
			{Label: "Active Cases", Value: format.Percent(c.ActivePercent(), 2)},
		},
		RiskLevel: format.NA,
		RiskScore: format.NA,
	}

	// the risk badge needs the history stage to have succeeded
	if history == nil {
		return panel
	}

	if a != nil {
		panel.RiskLevel = a.RiskLevel
		panel.RiskScore = risk.ScoreLabel(a.RiskScore)
		panel.RiskClass = risk.LevelClass(risk.Level(a.RiskLevel))
	}

	panel.Trends, panel.Daily = HistoryCharts(c.Country, history.Timeline)
	return panel
}

// HistoryCharts builds the cumulative trend chart and the daily new cases chart
func HistoryCharts(name string, tl covid.Timeline) (*render.Chart, *render.Chart) {
	labels := tl.Cases.Labels()

	trends := &render.Chart{
		ID:     render.ChartCountryTrend,
		Title:  name + " COVID-19 Trends",
		Kind:   render.LineChart,
		YLabel: "Number of people",
		Labels: labels,
		Datasets: []render.Dataset{
			{Label: "Cases", Color: "rgba(54, 162, 235, 1)", Values: floats(tl.Cases.Values())},
			{Label: "Deaths", Color: "rgba(255, 99, 132, 1)", Values: floats(tl.Deaths.Values())},
		},
	}
	if len(tl.Recovered) > 0 {
		trends.Datasets = append(trends.Datasets, render.Dataset{
			Label: "Recovered", Color: "rgba(75, 192, 192, 1)", Values: floats(tl.Recovered.Values()),
		})
	}

	daily := &render.Chart{
		ID:     render.ChartCountryDaily,
		Title:  name + " Daily New Cases",
		Kind:   render.BarChart,
		YLabel: "New cases",
		Labels: labels,
		Datasets: []render.Dataset{
			{Label: "Daily New Cases", Color: "rgba(255, 159, 64, 0.7)", Values: floats(tl.Cases.DailyNew())},
		},
	}
	return trends, daily
}

func floats(v []int64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
