// Package html renders dashboard views into a single static HTML page.
package html

import (
	"fmt"
	"html/template"
	"io"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/wonny/covidwatch/internal/dashboard/format"
	"github.com/wonny/covidwatch/internal/dashboard/render"
)

// Page collects the views rendered into it; Write emits the document.
// Charts and tables keep the order they were first rendered in.
type Page struct {
	mu sync.Mutex

	title       string
	global      *render.GlobalPanel
	markers     []render.Marker
	charts      *orderedmap.OrderedMap[string, render.Chart]
	tables      *orderedmap.OrderedMap[string, render.Table]
	risk        *render.RiskPanel
	vaccine     *render.VaccinePanel
	detail      *render.DetailPanel
	suggestions []render.Suggestion
	loading     string
	errMsg      string
}

var _ render.Renderer = (*Page)(nil)

// New creates an empty page
func New(title string) *Page {
	return &Page{
		title:  title,
		charts: orderedmap.New[string, render.Chart](),
		tables: orderedmap.New[string, render.Table](),
	}
}

func (p *Page) RenderChart(c render.Chart) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charts.Set(c.ID, c)
	p.loading = ""
}

func (p *Page) RenderTable(t render.Table) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables.Set(t.ID, t)
	p.loading = ""
}

func (p *Page) RenderMarkers(m []render.Marker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markers = m
}

func (p *Page) RenderGlobal(g render.GlobalPanel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.global = &g
}

func (p *Page) RenderRisk(r render.RiskPanel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.risk = &r
	p.loading, p.errMsg = "", ""
}

func (p *Page) RenderVaccine(v render.VaccinePanel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vaccine = &v
	p.loading, p.errMsg = "", ""
}

func (p *Page) RenderDetail(d render.DetailPanel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail = &d
	p.loading, p.errMsg = "", ""
}

func (p *Page) RenderSuggestions(s []render.Suggestion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suggestions = s
}

func (p *Page) ShowLoading(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = msg
}

// ShowError shows msg; a static page cannot offer the retry action
func (p *Page) ShowError(msg string, _ func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = ""
	p.errMsg = msg
}

func (p *Page) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charts = orderedmap.New[string, render.Chart]()
	p.tables = orderedmap.New[string, render.Table]()
	p.loading, p.errMsg = "", ""
}

type pageData struct {
	Title       string
	Global      *render.GlobalPanel
	Markers     []render.Marker
	Charts      []render.Chart
	Tables      []render.Table
	Risk        *render.RiskPanel
	Vaccine     *render.VaccinePanel
	Detail      *render.DetailPanel
	Suggestions []render.Suggestion
	Loading     string
	Error       string
}

func (p *Page) snapshot() pageData {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := pageData{
		Title:       p.title,
		Global:      p.global,
		Markers:     p.markers,
		Risk:        p.risk,
		Vaccine:     p.vaccine,
		Detail:      p.detail,
		Suggestions: p.suggestions,
		Loading:     p.loading,
		Error:       p.errMsg,
	}
	for pair := p.charts.Oldest(); pair != nil; pair = pair.Next() {
		d.Charts = append(d.Charts, pair.Value)
	}
	for pair := p.tables.Oldest(); pair != nil; pair = pair.Next() {
		d.Tables = append(d.Tables, pair.Value)
	}
	return d
}

// Write renders the page
func (p *Page) Write(w io.Writer) error {
	if err := pageTemplate.Execute(w, p.snapshot()); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"width": func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
	"at": func(values []float64, i int) string {
		if i < 0 || i >= len(values) {
			return ""
		}
		return format.Compact(values[i])
	},
}).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Loading}}<div id="loading" class="loading-message">{{.Loading}}</div>{{end}}
{{if .Error}}<div id="error" class="error-message">{{.Error}}</div>{{end}}

{{with .Global}}
<section id="global">
{{range .Stats}}<div class="stat"><span class="stat-label">{{.Label}}</span> <span class="stat-value">{{.Value}}</span></div>
{{end}}<p id="global-date">{{.Updated}}</p>
</section>
{{end}}

{{if .Markers}}
<section id="map">
<ul>
{{range .Markers}}<li class="marker" data-country="{{.Country}}" data-lat="{{.Lat}}" data-long="{{.Long}}" data-color="{{.Color}}">{{.Country}}: {{.Cases}} cases, {{.Deaths}} deaths, {{.Recovered}} recovered</li>
{{end}}</ul>
</section>
{{end}}

{{range .Tables}}
<table id="table-{{.ID}}" class="data-table">
<caption>{{.Title}}</caption>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{else}}<tr><td class="error-message">No data available</td></tr>
{{end}}</tbody>
</table>
{{end}}

{{range .Charts}}{{template "chart" .}}{{end}}

{{with .Detail}}
<section id="detail">
<h2>{{if .Flag}}<img src="{{.Flag}}" alt="{{.Country}} flag"> {{end}}{{.Country}}</h2>
<p class="population">{{.Population}}</p>
{{range .Stats}}<div class="stat"><span class="stat-label">{{.Label}}</span> <span class="stat-value">{{.Value}}</span></div>
{{end}}<p class="risk-badge {{.RiskClass}}">{{.RiskLevel}} ({{.RiskScore}})</p>
{{with .Trends}}{{template "chart" .}}{{end}}
{{with .Daily}}{{template "chart" .}}{{end}}
</section>
{{end}}

{{with .Risk}}
<section id="risk">
<h2>{{.Country}}</h2>
<p class="risk-level {{.LevelClass}}">{{.Level}}</p>
<p class="risk-score">{{.Score}}</p>
<div class="gauge-pointer" data-angle="{{.Angle}}"></div>
{{range .Factors}}<div class="factor"><span class="factor-label">{{.Label}}</span> <span class="factor-bar {{.Class}}" data-width="{{width .Width}}"></span> <span class="factor-value">{{.Value}}</span></div>
{{end}}<ul class="recommendations">
{{range .Recommendations}}<li class="{{.Icon}}"><strong>{{.Title}}</strong> {{.Description}}</li>
{{end}}</ul>
</section>
{{end}}

{{with .Vaccine}}
<section id="vaccine">
<h2>{{.Country}}</h2>
<p class="population">{{.Population}}</p>
{{range .Stats}}<div class="stat"><span class="stat-label">{{.Label}}</span> <span class="stat-value">{{.Value}}</span></div>
{{end}}{{with .Timeline}}{{template "chart" .}}{{end}}
</section>
{{end}}

{{if .Suggestions}}
<ul id="suggestions">
{{range .Suggestions}}<li class="suggestion">{{.Name}}</li>
{{end}}</ul>
{{end}}
</body>
</html>
{{define "chart"}}
<figure id="chart-{{.ID}}" class="chart" data-kind="{{.Kind}}">
<figcaption>{{.Title}}</figcaption>
<table>
<thead><tr><th>{{.YLabel}}</th>{{range .Labels}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{$labels := .Labels}}{{range $d := .Datasets}}<tr class="dataset"><th>{{$d.Label}}</th>{{range $i, $l := $labels}}<td>{{at $d.Values $i}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</figure>
{{end}}`
