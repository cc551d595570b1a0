// Package render defines the output ports of the dashboard controllers and
// the view models they hand over. Implementations live in render/term and render/html.
package render

// ChartKind selects how a chart is drawn
type ChartKind string

const (
	BarChart  ChartKind = "bar"
	LineChart ChartKind = "line"
)

// Chart IDs used by the controllers
const (
	ChartComparison   = "comparison"
	ChartGlobalTrends = "global-trends"
	ChartCountryTrend = "country-trends"
	ChartCountryDaily = "country-daily"
	ChartVaccination  = "vaccination-timeline"
)

// Table IDs used by the controllers
const (
	TableComparison   = "comparison"
	TableTopCountries = "top-countries"
)

// Dataset is one labelled series of a chart
type Dataset struct {
	Label  string
	Color  string
	Values []float64
	Colors []string // per-bar colours, bar charts only
}

// Chart is a bar or line chart
type Chart struct {
	ID       string
	Title    string
	Kind     ChartKind
	YLabel   string
	Labels   []string
	Datasets []Dataset
}

// Table is a titled grid of preformatted cells
type Table struct {
	ID     string
	Title  string
	Header []string
	Rows   [][]string
}

// Marker is one country on the map
type Marker struct {
	Country   string
	Flag      string
	Lat       float64
	Long      float64
	Color     string
	Cases     string
	Deaths    string
	Recovered string
}

// Stat is a labelled, formatted value
type Stat struct {
	Label string
	Value string
}

// GlobalPanel is the worldwide totals panel
type GlobalPanel struct {
	Stats   []Stat
	Updated string
}

// Bar is one risk factor bar
type Bar struct {
	Label string
	Value string
	Width float64 // 0~100
	Class string
}

// Recommendation is one advice card of a risk level
type Recommendation struct {
	Icon        string
	Title       string
	Description string
}

// RiskPanel is the risk assessment view
type RiskPanel struct {
	Country         string
	Flag            string
	Level           string
	LevelClass      string
	Score           string
	Angle           float64 // gauge pointer, -90 ~ 90
	Factors         []Bar
	Recommendations []Recommendation
}

// VaccinePanel is the per-country vaccination view
type VaccinePanel struct {
	Country    string
	Flag       string
	Population string
	Stats      []Stat
	Timeline   *Chart
}

// DetailPanel is the country detail view of the search page
type DetailPanel struct {
	Country    string
	Flag       string
	Population string
	Stats      []Stat
	RiskLevel  string
	RiskScore  string
	RiskClass  string
	Trends     *Chart // nil when the history is unavailable
	Daily      *Chart
}

// Suggestion is one search suggestion
type Suggestion struct {
	Name string
	Flag string
}

// ChartRenderer draws charts; a chart replaces the previous one with the same ID
type ChartRenderer interface {
	RenderChart(c Chart)
}

// TableRenderer draws tables; a table replaces the previous one with the same ID
type TableRenderer interface {
	RenderTable(t Table)
}

// MapRenderer places country markers
type MapRenderer interface {
	RenderMarkers(markers []Marker)
}

// GlobalRenderer draws the worldwide totals
type GlobalRenderer interface {
	RenderGlobal(p GlobalPanel)
}

// RiskRenderer draws the risk assessment panel
type RiskRenderer interface {
	RenderRisk(p RiskPanel)
}

// VaccineRenderer draws the vaccination panel
type VaccineRenderer interface {
	RenderVaccine(p VaccinePanel)
}

// DetailRenderer draws the country detail panel
type DetailRenderer interface {
	RenderDetail(p DetailPanel)
}

// SuggestionRenderer lists search suggestions; an empty list hides them
type SuggestionRenderer interface {
	RenderSuggestions(s []Suggestion)
}

// StatusRenderer shows transient loading and error states
type StatusRenderer interface {
	ShowLoading(msg string)
	ShowError(msg string, retry func())
	Clear()
}

// Renderer is implemented by every full output backend
type Renderer interface {
	ChartRenderer
	TableRenderer
	MapRenderer
	GlobalRenderer
	RiskRenderer
	VaccineRenderer
	DetailRenderer
	SuggestionRenderer
	StatusRenderer
}
