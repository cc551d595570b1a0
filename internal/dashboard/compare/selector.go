package compare

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/dashboard"
	"github.com/wonny/covidwatch/internal/dashboard/format"
	"github.com/wonny/covidwatch/internal/dashboard/render"
	"github.com/wonny/covidwatch/pkg/logger"
)

// MaxSelected is the size limit of the selection set
const MaxSelected = 5

// Messages shown by the selector
const (
	MsgFull    = "You can compare up to 5 countries at a time."
	MsgLoading = "Loading comparison data..."
	MsgFailed  = "Failed to load comparison data."
)

// TableHeader is the header row of the comparison table
var TableHeader = []string{"Country", "Total Cases", "Cases/Million", "Deaths", "Deaths/Million", "Recovered", "Active"}

// Fetcher issues the batch comparison request
type Fetcher interface {
	Compare(ctx context.Context, names []string) ([]covid.ComparisonEntry, error)
}

// Renderer is the output port of the selector
type Renderer interface {
	render.TableRenderer
	render.ChartRenderer
	render.StatusRenderer
}

// Notifier shows a blocking message to the user
type Notifier interface {
	Alert(msg string)
}

// Selector owns the selection set and the last comparison result
type Selector struct {
	fetcher  Fetcher
	renderer Renderer
	notifier Notifier
	logger   *logger.Logger
	fence    dashboard.Fence

	mu       sync.Mutex
	selected []string
	data     []covid.ComparisonEntry
	metric   Metric
}

// NewSelector creates an empty selector
func NewSelector(f Fetcher, r Renderer, n Notifier, log *logger.Logger) *Selector {
	return &Selector{
		fetcher:  f,
		renderer: r,
		notifier: n,
		logger:   log.Component("compare"),
		metric:   DefaultMetric,
	}
}

// Add appends name and refreshes. Empty names, duplicates and a full set are no-ops.
func (s *Selector) Add(ctx context.Context, name string) bool {
	if !s.add(name) {
		return false
	}
	_ = s.Refresh(ctx)
	return true
}

// AddPair adds up to two names from the paired dropdowns, then refreshes once
func (s *Selector) AddPair(ctx context.Context, a, b string) {
	s.add(a)
	s.add(b)

	if len(s.Selected()) > 0 {
		_ = s.Refresh(ctx)
	}
}

func (s *Selector) add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	s.mu.Lock()
	if slices.Contains(s.selected, name) {
		s.mu.Unlock()
		return false
	}
	if len(s.selected) >= MaxSelected {
		s.mu.Unlock()
		if s.notifier != nil {
			s.notifier.Alert(MsgFull)
		}
		return false
	}
	s.selected = append(s.selected, name)
	s.mu.Unlock()
	return true
}

// Remove drops name. Emptying the set clears the output without a request.
func (s *Selector) Remove(ctx context.Context, name string) bool {
	s.mu.Lock()
	i := slices.Index(s.selected, name)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.selected = slices.Delete(s.selected, i, i+1)
	empty := len(s.selected) == 0
	if empty {
		s.data = nil
	}
	s.mu.Unlock()

	if empty {
		s.fence.Invalidate()
		s.renderer.Clear()
		return true
	}
	_ = s.Refresh(ctx)
	return true
}

// Refresh fetches the whole selection in one request.
// On failure the previous output stays and a retry is offered.
func (s *Selector) Refresh(ctx context.Context) error {
	names := s.Selected()
	if len(names) == 0 {
		return nil
	}

	id := s.fence.Next()
	s.renderer.ShowLoading(MsgLoading)

	entries, err := s.fetcher.Compare(ctx, names)
	if !s.fence.Current(id) {
		return dashboard.ErrSuperseded
	}
	if err != nil {
		s.logger.WithError(err).WithField("countries", strings.Join(names, ",")).Warn("Error fetching comparison data")
		s.renderer.ShowError(MsgFailed, func() {
			_ = s.Refresh(context.Background())
		})
		return fmt.Errorf("compare: %w", err)
	}

	s.mu.Lock()
	s.data = entries
	metric := s.metric
	s.mu.Unlock()

	s.renderer.RenderTable(BuildTable(entries))
	s.renderer.RenderChart(BuildChart(SeriesOf(metric, entries)))
	return nil
}

// RenderMetric returns metric over the cached result in selection order
func (s *Selector) RenderMetric(metric Metric) Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SeriesOf(metric, s.data)
}

// SetMetric switches the chart metric and re-renders from the cached result
func (s *Selector) SetMetric(metric Metric) {
	s.mu.Lock()
	s.metric = metric
	data := s.data
	s.mu.Unlock()

	if len(data) == 0 {
		return
	}
	s.renderer.RenderChart(BuildChart(SeriesOf(metric, data)))
}

// Metric returns the current chart metric
func (s *Selector) Metric() Metric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metric
}

// Selected returns a copy of the selection set
func (s *Selector) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// Teardown drops the selection and every derived output
func (s *Selector) Teardown() {
	s.mu.Lock()
	s.selected = nil
	s.data = nil
	s.mu.Unlock()

	s.fence.Invalidate()
	s.renderer.Clear()
}

// BuildTable renders the comparison rows
func BuildTable(entries []covid.ComparisonEntry) render.Table {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.Country,
			format.Number(e.Cases),
			format.Decimal(e.CasesPerOneMillion),
			format.Number(e.Deaths),
			format.Decimal(e.DeathsPerOneMillion),
			format.Number(e.Recovered),
			format.Number(e.Active),
		}
	}
	return render.Table{
		ID:     render.TableComparison,
		Title:  "Country Comparison",
		Header: TableHeader,
		Rows:   rows,
	}
}

// BuildChart renders a series as a bar chart coloured by selection order
func BuildChart(s Series) render.Chart {
	colors := make([]string, len(s.Points))
	for i := range colors {
		colors[i] = Palette[i%len(Palette)]
	}
	return render.Chart{
		ID:     render.ChartComparison,
		Title:  "COVID-19 " + s.Name + " Comparison",
		Kind:   render.BarChart,
		YLabel: s.Name,
		Labels: s.Labels(),
		Datasets: []render.Dataset{{
			Label:  s.Name,
			Values: s.Values(),
			Colors: colors,
		}},
	}
}
