// Package term renders dashboard views as plain text tables and bars.
package term

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/olekukonko/tablewriter"

	"github.com/wonny/covidwatch/internal/dashboard/format"
	"github.com/wonny/covidwatch/internal/dashboard/render"
)

// BarWidth is the number of cells of a full bar
const BarWidth = 40

var sparks = []rune("▁▂▃▄▅▆▇█")

// Renderer writes views to out and status lines to status
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	status io.Writer
	retry  func() // last failure; dropped when a load starts or a panel renders
}

var _ render.Renderer = (*Renderer)(nil)

// New creates a terminal renderer; status may be nil to drop status lines
func New(out, status io.Writer) *Renderer {
	if status == nil {
		status = io.Discard
	}
	return &Renderer{out: out, status: status}
}

// Bar draws a horizontal bar for a 0~100 percentage
func Bar(pct float64, cells int) string {
	if math.IsNaN(pct) || pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(math.Round(pct / 100 * float64(cells)))
	return strings.Repeat("█", filled) + strings.Repeat("░", cells-filled)
}

// Sparkline draws values as one row of block characters
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var b strings.Builder
	for _, v := range values {
		i := 0
		if hi > lo {
			i = int((v - lo) / (hi - lo) * float64(len(sparks)-1))
		}
		b.WriteRune(sparks[i])
	}
	return b.String()
}

func (r *Renderer) table(title string, header []string, rows [][]string) {
	if title != "" {
		fmt.Fprintf(r.out, "\n%s\n", title)
	}
	tw := tablewriter.NewWriter(r.out)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	if len(header) > 0 {
		tw.SetHeader(header)
	}
	tw.AppendBulk(rows)
	tw.Render()
}

func statRows(stats []render.Stat) [][]string {
	rows := make([][]string, len(stats))
	for i, s := range stats {
		rows[i] = []string{s.Label, s.Value}
	}
	return rows
}

func (r *Renderer) chart(c render.Chart) {
	fmt.Fprintf(r.out, "\n%s\n", c.Title)
	if len(c.Datasets) == 0 || len(c.Labels) == 0 {
		fmt.Fprintln(r.out, "  (no data)")
		return
	}

	if c.Kind == render.BarChart && len(c.Datasets) == 1 {
		values := c.Datasets[0].Values
		var max float64
		pad := 0
		for i, v := range values {
			max = math.Max(max, v)
			if i < len(c.Labels) {
				pad = int(math.Max(float64(pad), float64(len([]rune(c.Labels[i])))))
			}
		}
		for i, v := range values {
			label := ""
			if i < len(c.Labels) {
				label = c.Labels[i]
			}
			pct := 0.0
			if max > 0 {
				pct = v / max * 100
			}
			fmt.Fprintf(r.out, "  %-*s %s %s\n", pad, label, Bar(pct, BarWidth), format.Compact(v))
		}
		return
	}

	fmt.Fprintf(r.out, "  %s .. %s\n", c.Labels[0], c.Labels[len(c.Labels)-1])
	for _, d := range c.Datasets {
		if len(d.Values) == 0 {
			continue
		}
		fmt.Fprintf(r.out, "  %-18s %s %s\n", d.Label, Sparkline(d.Values), format.Compact(d.Values[len(d.Values)-1]))
	}
}

func (r *Renderer) RenderChart(c render.Chart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chart(c)
}

func (r *Renderer) RenderTable(t render.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(t.Rows) == 0 {
		fmt.Fprintf(r.out, "\n%s\n  No data available\n", t.Title)
		return
	}
	r.table(t.Title, t.Header, t.Rows)
}

func (r *Renderer) RenderMarkers(markers []render.Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]string, len(markers))
	for i, m := range markers {
		rows[i] = []string{m.Country, fmt.Sprintf("%.2f", m.Lat), fmt.Sprintf("%.2f", m.Long), m.Cases, m.Color}
	}
	r.table(fmt.Sprintf("Map (%d countries)", len(markers)), []string{"Country", "Lat", "Long", "Cases", "Shade"}, rows)
}

func (r *Renderer) RenderGlobal(p render.GlobalPanel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retry = nil
	r.table("Global", nil, statRows(p.Stats))
	fmt.Fprintln(r.out, p.Updated)
}

func (r *Renderer) RenderRisk(p render.RiskPanel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retry = nil

	fmt.Fprintf(r.out, "\n%s: %s (%s)\n", p.Country, p.Level, p.Score)
	fmt.Fprintf(r.out, "  gauge %+.0f°\n", p.Angle)
	for _, f := range p.Factors {
		fmt.Fprintf(r.out, "  %-28s %s %s\n", f.Label, Bar(f.Width, BarWidth/2), f.Value)
	}
	if len(p.Recommendations) > 0 {
		fmt.Fprintln(r.out, "\nRecommendations")
		for _, rec := range p.Recommendations {
			fmt.Fprintf(r.out, "  - %s: %s\n", rec.Title, rec.Description)
		}
	}
}

func (r *Renderer) RenderVaccine(p render.VaccinePanel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retry = nil

	r.table(p.Country+" vaccination", nil, statRows(p.Stats))
	fmt.Fprintln(r.out, p.Population)
	if p.Timeline != nil {
		r.chart(*p.Timeline)
	}
}

func (r *Renderer) RenderDetail(p render.DetailPanel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retry = nil

	r.table(p.Country, nil, statRows(p.Stats))
	fmt.Fprintln(r.out, p.Population)
	fmt.Fprintf(r.out, "Risk: %s (%s)\n", p.RiskLevel, p.RiskScore)
	if p.Trends != nil {
		r.chart(*p.Trends)
	}
	if p.Daily != nil {
		r.chart(*p.Daily)
	}
}

func (r *Renderer) RenderSuggestions(s []render.Suggestion) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(s) == 0 {
		fmt.Fprintln(r.out, "No matches")
		return
	}
	for _, x := range s {
		fmt.Fprintln(r.out, x.Name)
	}
}

func (r *Renderer) ShowLoading(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retry = nil
	fmt.Fprintln(r.status, msg)
}

func (r *Renderer) ShowError(msg string, retry func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retry = retry
	fmt.Fprintf(r.status, "error: %s\n", msg)
}

func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retry = nil
}

// Alert prints a message the user has to see
func (r *Renderer) Alert(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.status, "! %s\n", msg)
}

// Retry runs the retry action of the last error, if any
func (r *Renderer) Retry() bool {
	r.mu.Lock()
	retry := r.retry
	r.retry = nil
	r.mu.Unlock()

	if retry == nil {
		return false
	}
	retry()
	return true
}
