package render

import "sync"

// Recorder is a Renderer that keeps the latest state of every port.
// Controllers are tested against it.
type Recorder struct {
	mu sync.Mutex

	Charts      map[string]Chart
	Tables      map[string]Table
	Markers     []Marker
	Global      *GlobalPanel
	Risk        *RiskPanel
	Vaccine     *VaccinePanel
	Detail      *DetailPanel
	Suggestions []Suggestion
	Loading     string
	Error       string
	Retry       func()
	Clears      int
	Calls       int
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{
		Charts: make(map[string]Chart),
		Tables: make(map[string]Table),
	}
}

func (r *Recorder) RenderChart(c Chart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Charts[c.ID] = c
	r.Loading = ""
}

func (r *Recorder) RenderTable(t Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Tables[t.ID] = t
	r.Loading = ""
}

func (r *Recorder) RenderMarkers(m []Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Markers = m
}

func (r *Recorder) RenderGlobal(p GlobalPanel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Global = &p
}

func (r *Recorder) RenderRisk(p RiskPanel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Risk = &p
	r.Loading, r.Error, r.Retry = "", "", nil
}

func (r *Recorder) RenderVaccine(p VaccinePanel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Vaccine = &p
	r.Loading, r.Error, r.Retry = "", "", nil
}

func (r *Recorder) RenderDetail(p DetailPanel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Detail = &p
	r.Loading, r.Error, r.Retry = "", "", nil
}

func (r *Recorder) RenderSuggestions(s []Suggestion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Suggestions = s
}

func (r *Recorder) ShowLoading(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Loading = msg
}

func (r *Recorder) ShowError(msg string, retry func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Loading = ""
	r.Error = msg
	r.Retry = retry
}

// Clear drops charts, tables and status, as an emptied view would
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Clears++
	r.Charts = make(map[string]Chart)
	r.Tables = make(map[string]Table)
	r.Loading, r.Error, r.Retry = "", "", nil
}

// Snapshot returns a copy of the recorded error and loading status
func (r *Recorder) Snapshot() (loading, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Loading, r.Error
}
