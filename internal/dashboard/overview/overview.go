// Package overview drives the landing view: global totals, the case map,
// the most affected countries and the worldwide trend.
package overview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/dashboard"
	"github.com/wonny/covidwatch/internal/dashboard/format"
	"github.com/wonny/covidwatch/internal/dashboard/render"
	"github.com/wonny/covidwatch/pkg/logger"
)

const (
	// DefaultTopN is the size of the top countries table
	DefaultTopN = 10
	// DefaultDays is the initial trend window
	DefaultDays = 30
	// WorldKey is the historical key of the worldwide timeline
	WorldKey = "all"
)

// Messages shown by the overview
const (
	MsgGlobalFailed    = "Failed to load global data. Please try again later."
	MsgCountriesFailed = "Failed to load countries data. Please try again later."
)

// Fetcher loads the overview data
type Fetcher interface {
	Global(ctx context.Context) (covid.Global, error)
	Countries(ctx context.Context) ([]covid.Country, error)
	Historical(ctx context.Context, name string, days int) (covid.Historical, error)
}

// Renderer is the output port of the overview
type Renderer interface {
	render.GlobalRenderer
	render.MapRenderer
	render.TableRenderer
	render.ChartRenderer
	render.StatusRenderer
}

// Overview owns the landing view
type Overview struct {
	fetcher  Fetcher
	renderer Renderer
	logger   *logger.Logger
	topN     int
	fence    dashboard.Fence

	mu        sync.RWMutex
	days      int
	countries []covid.Country
}

// New creates an overview with the default table size and trend window
func New(f Fetcher, r Renderer, log *logger.Logger) *Overview {
	return &Overview{
		fetcher:  f,
		renderer: r,
		logger:   log.Component("overview"),
		topN:     DefaultTopN,
		days:     DefaultDays,
	}
}

// WithTopN sets the size of the top countries table
func (o *Overview) WithTopN(n int) *Overview {
	if n > 0 {
		o.topN = n
	}
	return o
}

// WithDays sets the initial trend window
func (o *Overview) WithDays(days int) *Overview {
	if days > 0 {
		o.days = days
	}
	return o
}

// Load fetches global totals and countries together, then the trend
func (o *Overview) Load(ctx context.Context) error {
	var (
		wg         sync.WaitGroup
		global     covid.Global
		countries  []covid.Country
		gErr, cErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		global, gErr = o.fetcher.Global(ctx)
	}()
	go func() {
		defer wg.Done()
		countries, cErr = o.fetcher.Countries(ctx)
	}()
	wg.Wait()

	if gErr != nil {
		o.logger.WithError(gErr).Warn("Error fetching global data")
		o.renderer.ShowError(MsgGlobalFailed, o.retry)
	} else {
		o.renderer.RenderGlobal(GlobalPanel(global))
	}

	if cErr != nil {
		o.logger.WithError(cErr).Warn("Error fetching countries data")
		o.renderer.ShowError(MsgCountriesFailed, o.retry)
	} else {
		o.mu.Lock()
		o.countries = countries
		o.mu.Unlock()

		o.renderer.RenderMarkers(Markers(countries))
		o.renderer.RenderTable(TopTable(countries, o.topN))
	}

	tErr := o.SetDays(ctx, o.Days())
	if errors.Is(tErr, dashboard.ErrSuperseded) {
		tErr = nil
	}
	return errors.Join(wrap("global", gErr), wrap("countries", cErr), tErr)
}

func (o *Overview) retry() {
	_ = o.Load(context.Background())
}

// SetDays re-renders the worldwide trend for a new window.
// A failed trend keeps the previous chart.
func (o *Overview) SetDays(ctx context.Context, days int) error {
	if days <= 0 {
		days = DefaultDays
	}
	o.mu.Lock()
	o.days = days
	o.mu.Unlock()

	id := o.fence.Next()
	h, err := o.fetcher.Historical(ctx, WorldKey, days)
	if !o.fence.Current(id) {
		return dashboard.ErrSuperseded
	}
	if err != nil {
		o.logger.WithError(err).WithField("days", days).Warn("Error updating historical data")
		return fmt.Errorf("trends: %w", err)
	}

	o.renderer.RenderChart(TrendsChart(h.Timeline))
	return nil
}

// Days returns the current trend window
func (o *Overview) Days() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.days
}

// Countries returns the last loaded country list
func (o *Overview) Countries() []covid.Country {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.countries
}

func wrap(stage string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// MarkerColor shades a country by its total cases
func MarkerColor(cases int64) string {
	switch {
	case cases > 1000000:
		return "#FF0000"
	case cases > 500000:
		return "#FF7777"
	case cases > 100000:
		return "#FFAAAA"
	case cases > 10000:
		return "#FFD4D4"
	default:
		return "#FFEEEE"
	}
}

// GlobalPanel builds the worldwide totals panel
func GlobalPanel(g covid.Global) render.GlobalPanel {
	return render.GlobalPanel{
		Stats: []render.Stat{
			{Label: "Total Cases", Value: format.Number(g.Cases)},
			{Label: "Deaths", Value: format.Number(g.Deaths)},
			{Label: "Recovered", Value: format.Number(g.Recovered)},
			{Label: "Active", Value: format.Number(g.Active)},
			{Label: "Fatality Rate", Value: format.Percentage(g.Deaths, g.Cases)},
			{Label: "Recovery Rate", Value: format.Percentage(g.Recovered, g.Cases)},
			{Label: "Active Percent", Value: format.Percentage(g.Active, g.Cases)},
		},
		Updated: "Last updated: " + format.Date(g.Updated),
	}
}

// Markers places every country that has coordinates
func Markers(countries []covid.Country) []render.Marker {
	out := make([]render.Marker, 0, len(countries))
	for i := range countries {
		c := &countries[i]
		if !c.HasCoordinates() {
			continue
		}
		out = append(out, render.Marker{
			Country:   c.Country,
			Flag:      c.CountryInfo.Flag,
			Lat:       *c.CountryInfo.Lat,
			Long:      *c.CountryInfo.Long,
			Color:     MarkerColor(c.Cases),
			Cases:     format.Number(c.Cases),
			Deaths:    format.Number(c.Deaths),
			Recovered: format.Number(c.Recovered),
		})
	}
	return out
}

// Top returns the n countries with the most cases, descending
func Top(countries []covid.Country, n int) []covid.Country {
	sorted := slices.Clone(countries)
	slices.SortStableFunc(sorted, func(a, b covid.Country) int {
		switch {
		case a.Cases > b.Cases:
			return -1
		case a.Cases < b.Cases:
			return 1
		}
		return 0
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// TopTable builds the most affected countries table
func TopTable(countries []covid.Country, n int) render.Table {
	top := Top(countries, n)
	rows := make([][]string, len(top))
	for i, c := range top {
		rows[i] = []string{c.Country, format.Number(c.Cases), format.Number(c.Deaths), format.Number(c.Recovered)}
	}
	return render.Table{
		ID:     render.TableTopCountries,
		Title:  "Top Affected Countries",
		Header: []string{"Country", "Cases", "Deaths", "Recovered"},
		Rows:   rows,
	}
}

// TrendsChart plots the cumulative worldwide series
func TrendsChart(tl covid.Timeline) render.Chart {
	return render.Chart{
		ID:     render.ChartGlobalTrends,
		Title:  "Global COVID-19 Trends",
		Kind:   render.LineChart,
		YLabel: "Number of people",
		Labels: tl.Cases.Labels(),
		Datasets: []render.Dataset{
			{Label: "Cases", Color: "rgba(54, 162, 235, 1)", Values: toFloats(tl.Cases)},
			{Label: "Deaths", Color: "rgba(255, 99, 132, 1)", Values: toFloats(tl.Deaths)},
			{Label: "Recovered", Color: "rgba(75, 192, 192, 1)", Values: toFloats(tl.Recovered)},
		},
	}
}

func toFloats(s covid.Series) []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = float64(p.Value)
	}
	return out
}
