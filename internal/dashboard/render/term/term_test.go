package term

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/covidwatch/internal/dashboard/render"
)

func TestBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "░░░░░░░░░░"},
		{50, "█████░░░░░"},
		{100, "██████████"},
		{250, "██████████"},
		{-5, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bar(tt.pct, 10), "pct %v", tt.pct)
	}
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "▁▁▁", Sparkline([]float64{5, 5, 5}))
	assert.Equal(t, "▁█", Sparkline([]float64{0, 10}))
	assert.Equal(t, 4, len([]rune(Sparkline([]float64{1, 2, 3, 4}))))
}

func TestRenderTable(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, nil)

	r.RenderTable(render.Table{
		Title:  "Top Affected Countries",
		Header: []string{"Country", "Cases"},
		Rows:   [][]string{{"USA", "1,000"}, {"India", "900"}},
	})
	s := out.String()
	assert.Contains(t, s, "Top Affected Countries")
	assert.Contains(t, s, "Country")
	assert.Contains(t, s, "USA")
	assert.Contains(t, s, "1,000")

	out.Reset()
	r.RenderTable(render.Table{Title: "Empty"})
	assert.Contains(t, out.String(), "No data available")
}

func TestRenderChart_Bar(t *testing.T) {
	var out bytes.Buffer
	New(&out, nil).RenderChart(render.Chart{
		Title:    "COVID-19 Total Cases Comparison",
		Kind:     render.BarChart,
		Labels:   []string{"USA", "Peru"},
		Datasets: []render.Dataset{{Values: []float64{2000000, 1000000}}},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "COVID-19 Total Cases Comparison", lines[0])
	assert.Contains(t, lines[1], strings.Repeat("█", BarWidth))
	assert.Contains(t, lines[1], "2.00M")
	assert.Contains(t, lines[2], strings.Repeat("█", BarWidth/2)+"░")
}

func TestRenderChart_Line(t *testing.T) {
	var out bytes.Buffer
	New(&out, nil).RenderChart(render.Chart{
		Title:  "Trends",
		Kind:   render.LineChart,
		Labels: []string{"1/22", "1/23", "1/24"},
		Datasets: []render.Dataset{
			{Label: "Cases", Values: []float64{1, 2, 3}},
			{Label: "Empty"},
		},
	})
	s := out.String()
	assert.Contains(t, s, "1/22 .. 1/24")
	assert.Contains(t, s, "Cases")
	assert.NotContains(t, s, "Empty")

	out.Reset()
	New(&out, nil).RenderChart(render.Chart{Title: "Nothing"})
	assert.Contains(t, out.String(), "(no data)")
}

func TestRenderRisk(t *testing.T) {
	var out bytes.Buffer
	New(&out, nil).RenderRisk(render.RiskPanel{
		Country: "USA",
		Level:   "High",
		Score:   "7/10",
		Angle:   36,
		Factors: []render.Bar{{Label: "Active Cases per Million", Value: "1.50K", Width: 15}},
		Recommendations: []render.Recommendation{
			{Title: "Limit Gatherings", Description: "Avoid crowds."},
		},
	})
	s := out.String()
	assert.Contains(t, s, "USA: High (7/10)")
	assert.Contains(t, s, "gauge +36°")
	assert.Contains(t, s, "Active Cases per Million")
	assert.Contains(t, s, "- Limit Gatherings: Avoid crowds.")
}

func TestRenderDetail(t *testing.T) {
	var out bytes.Buffer
	New(&out, nil).RenderDetail(render.DetailPanel{
		Country:    "Chile",
		Population: "Population: 19,000,000",
		Stats:      []render.Stat{{Label: "Total Cases", Value: "1,000"}},
		RiskLevel:  "N/A",
		RiskScore:  "N/A",
	})
	s := out.String()
	assert.Contains(t, s, "Total Cases")
	assert.Contains(t, s, "Risk: N/A (N/A)")
}

func TestSuggestions(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, nil)
	r.RenderSuggestions([]render.Suggestion{{Name: "India"}, {Name: "Indonesia"}})
	assert.Equal(t, "India\nIndonesia\n", out.String())

	out.Reset()
	r.RenderSuggestions(nil)
	assert.Equal(t, "No matches\n", out.String())
}

func TestStatusAndRetry(t *testing.T) {
	var out, status bytes.Buffer
	r := New(&out, &status)

	r.ShowLoading("Loading...")
	r.Alert("You can compare up to 5 countries at a time.")
	assert.False(t, r.Retry())

	called := 0
	r.ShowError("Failed to load comparison data.", func() { called++ })
	assert.Contains(t, status.String(), "Loading...")
	assert.Contains(t, status.String(), "! You can compare up to 5 countries at a time.")
	assert.Contains(t, status.String(), "error: Failed to load comparison data.")
	assert.Empty(t, out.String())

	assert.True(t, r.Retry())
	assert.Equal(t, 1, called)
	assert.False(t, r.Retry(), "retry is consumed")

	r.ShowError("again", func() { called++ })
	r.Clear()
	assert.False(t, r.Retry())
}

func TestRetry_DroppedAfterRecovery(t *testing.T) {
	called := 0
	stale := func() { called++ }

	tests := []struct {
		name    string
		recover func(r *Renderer)
	}{
		{"loading", func(r *Renderer) { r.ShowLoading("Loading...") }},
		{"risk", func(r *Renderer) { r.RenderRisk(render.RiskPanel{Country: "USA", Level: "High", Score: "6.5"}) }},
		{"detail", func(r *Renderer) { r.RenderDetail(render.DetailPanel{Country: "USA"}) }},
		{"global", func(r *Renderer) { r.RenderGlobal(render.GlobalPanel{Updated: "now"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := New(&out, nil)

			r.ShowError("Failed to load risk assessment data.", stale)
			tt.recover(r)

			assert.False(t, r.Retry())
		})
	}
	assert.Zero(t, called)

	// sections rendered after a partial failure keep its retry
	r := New(&bytes.Buffer{}, nil)
	r.ShowError("Failed to load global data.", stale)
	r.RenderMarkers(nil)
	r.RenderTable(render.Table{Title: "Top Countries", Header: []string{"Country"}, Rows: [][]string{{"USA"}}})
	r.RenderChart(render.Chart{ID: render.ChartGlobalTrends, Kind: render.LineChart})
	assert.True(t, r.Retry())
	assert.Equal(t, 1, called)
}
