package compare

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/dashboard"
	"github.com/wonny/covidwatch/internal/dashboard/render"
	"github.com/wonny/covidwatch/pkg/logger"
)

type fakeFetcher struct {
	mu    sync.Mutex
	err   error
	calls [][]string

	// a request for holdKey signals entered, then waits for release
	holdKey string
	entered chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) Compare(ctx context.Context, names []string) ([]covid.ComparisonEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), names...))
	hold := f.holdKey != "" && strings.Join(names, ",") == f.holdKey
	f.mu.Unlock()

	if hold {
		close(f.entered)
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]covid.ComparisonEntry, len(names))
	for i, n := range names {
		out[i] = covid.ComparisonEntry{
			Country:             n,
			Cases:               int64(1000 * (i + 1)),
			Deaths:              int64(10 * (i + 1)),
			CasesPerOneMillion:  1234.5,
			DeathsPerOneMillion: 12.5,
		}
	}
	return out, nil
}

func (f *fakeFetcher) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return strings.Join(f.calls[len(f.calls)-1], ",")
}

type alerts struct{ msgs []string }

func (a *alerts) Alert(msg string) { a.msgs = append(a.msgs, msg) }

func newSelector() (*Selector, *fakeFetcher, *render.Recorder, *alerts) {
	f := &fakeFetcher{}
	rec := render.NewRecorder()
	a := &alerts{}
	return NewSelector(f, rec, a, logger.Nop()), f, rec, a
}

func TestSelector_AddDuplicate(t *testing.T) {
	s, f, _, _ := newSelector()
	ctx := context.Background()

	assert.True(t, s.Add(ctx, "USA"))
	assert.True(t, s.Add(ctx, "India"))
	assert.False(t, s.Add(ctx, "USA"))

	assert.Equal(t, []string{"USA", "India"}, s.Selected())
	assert.Len(t, f.calls, 2)
	assert.Equal(t, "USA,India", f.lastCall())
}

func TestSelector_AddEmpty(t *testing.T) {
	s, f, _, _ := newSelector()
	assert.False(t, s.Add(context.Background(), "  "))
	assert.Empty(t, s.Selected())
	assert.Empty(t, f.calls)
}

func TestSelector_Full(t *testing.T) {
	s, f, _, a := newSelector()
	ctx := context.Background()

	for _, n := range []string{"A", "B", "C", "D", "E"} {
		require.True(t, s.Add(ctx, n))
	}
	assert.False(t, s.Add(ctx, "F"))
	assert.Len(t, s.Selected(), MaxSelected)
	assert.Equal(t, []string{MsgFull}, a.msgs)
	assert.Len(t, f.calls, 5, "rejected add issues no request")

	// a duplicate at capacity is silently ignored
	assert.False(t, s.Add(ctx, "A"))
	assert.Len(t, a.msgs, 1)
}

func TestSelector_AddPair(t *testing.T) {
	s, f, _, _ := newSelector()
	ctx := context.Background()

	s.AddPair(ctx, "USA", "USA")
	assert.Equal(t, []string{"USA"}, s.Selected())
	assert.Len(t, f.calls, 1)

	s.AddPair(ctx, "", "Brazil")
	assert.Equal(t, []string{"USA", "Brazil"}, s.Selected())
	assert.Len(t, f.calls, 2)

	s2, f2, _, _ := newSelector()
	s2.AddPair(ctx, "", "")
	assert.Empty(t, f2.calls)
}

func TestSelector_RenderAndMetric(t *testing.T) {
	s, _, rec, _ := newSelector()
	ctx := context.Background()
	s.Add(ctx, "USA")
	s.Add(ctx, "India")

	table, ok := rec.Tables[render.TableComparison]
	require.True(t, ok)
	assert.Equal(t, TableHeader, table.Header)
	assert.Equal(t, []string{"USA", "1,000", "1,234.5", "10", "12.5", "0", "0"}, table.Rows[0])

	chart := rec.Charts[render.ChartComparison]
	assert.Equal(t, "COVID-19 Total Cases Comparison", chart.Title)
	assert.Equal(t, []string{"USA", "India"}, chart.Labels)
	assert.Equal(t, []float64{1000, 2000}, chart.Datasets[0].Values)
	assert.Equal(t, Palette[:2], chart.Datasets[0].Colors)

	calls := rec.Calls
	s.SetMetric(MetricDeaths)
	assert.Equal(t, calls+1, rec.Calls, "metric switch renders without a fetch")
	chart = rec.Charts[render.ChartComparison]
	assert.Equal(t, "Total Deaths", chart.YLabel)
	assert.Equal(t, []float64{10, 20}, chart.Datasets[0].Values)
	assert.Equal(t, MetricDeaths, s.Metric())
}

func TestSelector_RenderMetric(t *testing.T) {
	s, _, _, _ := newSelector()
	assert.Empty(t, s.RenderMetric(MetricCases).Points)

	s.Add(context.Background(), "USA")
	s.Add(context.Background(), "Peru")

	series := s.RenderMetric(MetricCases)
	assert.Equal(t, "Total Cases", series.Name)
	assert.Equal(t, []Point{{"USA", 1000}, {"Peru", 2000}}, series.Points)

	unknown := s.RenderMetric("vaccinated")
	assert.Equal(t, "vaccinated", unknown.Name)
	assert.Equal(t, []float64{0, 0}, unknown.Values())
	assert.False(t, Metric("vaccinated").Known())
}

func TestSelector_SetMetricWithoutData(t *testing.T) {
	s, _, rec, _ := newSelector()
	s.SetMetric(MetricActive)
	assert.Zero(t, rec.Calls)
}

func TestSelector_RemoveLastClears(t *testing.T) {
	s, f, rec, _ := newSelector()
	ctx := context.Background()
	s.Add(ctx, "USA")
	s.Add(ctx, "India")

	assert.True(t, s.Remove(ctx, "USA"))
	assert.Equal(t, "India", f.lastCall())

	assert.False(t, s.Remove(ctx, "Chad"))

	calls := len(f.calls)
	assert.True(t, s.Remove(ctx, "India"))
	assert.Len(t, f.calls, calls, "emptying the set issues no request")
	assert.Equal(t, 1, rec.Clears)
	assert.Empty(t, rec.Tables)
	assert.Empty(t, rec.Error)
	assert.Empty(t, s.RenderMetric(MetricCases).Points)
}

func TestSelector_FailureKeepsPreviousOutput(t *testing.T) {
	s, f, rec, _ := newSelector()
	ctx := context.Background()
	s.Add(ctx, "USA")

	f.err = errors.New("HTTP 500")
	assert.True(t, s.Add(ctx, "India"))
	assert.Equal(t, MsgFailed, rec.Error)
	require.NotNil(t, rec.Retry)

	// the earlier table stays
	assert.Len(t, rec.Tables[render.TableComparison].Rows, 1)
	assert.Equal(t, []string{"USA"}, s.RenderMetric(MetricCases).Labels())

	f.err = nil
	rec.Retry()
	assert.Len(t, rec.Tables[render.TableComparison].Rows, 2)
}

func TestSelector_Teardown(t *testing.T) {
	s, _, rec, _ := newSelector()
	s.Add(context.Background(), "USA")
	s.Teardown()

	assert.Empty(t, s.Selected())
	assert.Empty(t, s.RenderMetric(MetricCases).Points)
	assert.Equal(t, 1, rec.Clears)
}

func TestSelected_ReturnsCopy(t *testing.T) {
	s, _, _, _ := newSelector()
	s.Add(context.Background(), "USA")
	got := s.Selected()
	got[0] = "changed"
	assert.Equal(t, []string{"USA"}, s.Selected())
}

func TestMetrics(t *testing.T) {
	assert.Len(t, Metrics(), 7)
	for _, m := range Metrics() {
		assert.True(t, m.Known(), m)
	}
	assert.Equal(t, "Tests per Million", MetricTestsPerMillion.DisplayName())
}

func TestSelector_RemoveDropsInFlightResponse(t *testing.T) {
	s, f, rec, _ := newSelector()
	ctx := context.Background()
	require.True(t, s.Add(ctx, "USA"))
	require.True(t, s.Add(ctx, "India"))

	f.mu.Lock()
	f.holdKey = "USA,India"
	f.entered = make(chan struct{})
	f.release = make(chan struct{})
	f.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.Refresh(ctx) }()
	<-f.entered

	// the newer request for the smaller selection completes first
	require.True(t, s.Remove(ctx, "India"))
	close(f.release)

	assert.ErrorIs(t, <-done, dashboard.ErrSuperseded)

	assert.Equal(t, []string{"USA"}, s.Selected())
	assert.Equal(t, []string{"USA"}, rec.Charts[render.ChartComparison].Labels)
	assert.Len(t, rec.Tables[render.TableComparison].Rows, 1)

	series := s.RenderMetric(MetricCases)
	require.Len(t, series.Points, 1)
	assert.Equal(t, "USA", series.Points[0].Label)
}
