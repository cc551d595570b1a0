package risk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/dashboard"
	"github.com/wonny/covidwatch/internal/dashboard/render"
	"github.com/wonny/covidwatch/pkg/logger"
)

// State of the risk view
type State int

const (
	Idle State = iota
	Loading
	Displayed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Displayed:
		return "displayed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrNotFailed is returned by Retry outside the Failed state
var ErrNotFailed = errors.New("risk view is not in a failed state")

// Messages shown by the view
const (
	MsgLoading = "Loading risk assessment..."
	MsgFailed  = "Failed to load risk assessment data. Please try again."
)

// Fetcher loads the data behind the view
type Fetcher interface {
	RiskAssessment(ctx context.Context, name string) (covid.RiskAssessment, error)
	Country(ctx context.Context, name string) (covid.Country, error)
}

// Coverage reports the vaccination coverage (percent of population) of a country
type Coverage interface {
	Coverage(ctx context.Context, c covid.Country) (float64, bool)
}

// Renderer is the output port of the view
type Renderer interface {
	render.RiskRenderer
	render.StatusRenderer
}

// View drives the risk assessment panel:
// Idle -> Loading -> Displayed | Failed, and Failed -> Loading on retry.
type View struct {
	fetcher  Fetcher
	renderer Renderer
	coverage Coverage
	logger   *logger.Logger
	timeout  time.Duration
	fence    dashboard.Fence

	mu      sync.Mutex
	state   State
	country string
	panel   *render.RiskPanel
}

// NewView creates an idle risk view
func NewView(f Fetcher, r Renderer, log *logger.Logger) *View {
	return &View{
		fetcher:  f,
		renderer: r,
		logger:   log.Component("risk"),
	}
}

// WithCoverage enables the vaccination coverage factor
func (v *View) WithCoverage(c Coverage) *View {
	v.coverage = c
	return v
}

// WithTimeout bounds every load; 0 disables the bound
func (v *View) WithTimeout(d time.Duration) *View {
	v.timeout = d
	return v
}

// State returns the current state
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Panel returns the last displayed panel, nil before the first success
func (v *View) Panel() *render.RiskPanel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.panel
}

// Load fetches the assessment and then the country for name
func (v *View) Load(ctx context.Context, name string) error {
	id := v.fence.Next()

	v.mu.Lock()
	v.state = Loading
	v.country = name
	v.mu.Unlock()
	v.renderer.ShowLoading(MsgLoading)

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	assessment, err := v.fetcher.RiskAssessment(ctx, name)
	if err != nil {
		return v.fail(id, name, fmt.Errorf("risk assessment: %w", err))
	}
	if !v.fence.Current(id) {
		return dashboard.ErrSuperseded
	}

	country, err := v.fetcher.Country(ctx, name)
	if err != nil {
		return v.fail(id, name, fmt.Errorf("country: %w", err))
	}
	if !v.fence.Current(id) {
		return dashboard.ErrSuperseded
	}

	var vaccinated *float64
	if v.coverage != nil {
		if pct, ok := v.coverage.Coverage(ctx, country); ok {
			vaccinated = &pct
		}
		if !v.fence.Current(id) {
			return dashboard.ErrSuperseded
		}
	}

	panel := BuildPanel(assessment, country, vaccinated)

	v.mu.Lock()
	if !v.fence.Current(id) {
		v.mu.Unlock()
		return dashboard.ErrSuperseded
	}
	v.state = Displayed
	v.panel = &panel
	v.mu.Unlock()

	v.renderer.RenderRisk(panel)
	return nil
}

// Retry reloads the country of a failed load
func (v *View) Retry(ctx context.Context) error {
	v.mu.Lock()
	state, name := v.state, v.country
	v.mu.Unlock()

	if state != Failed {
		return ErrNotFailed
	}
	return v.Load(ctx, name)
}

func (v *View) fail(id uint64, name string, err error) error {
	v.mu.Lock()
	if !v.fence.Current(id) {
		v.mu.Unlock()
		return dashboard.ErrSuperseded
	}
	v.state = Failed
	v.mu.Unlock()

	v.logger.WithError(err).WithField("country", name).Warn("Error fetching risk assessment")
	v.renderer.ShowError(MsgFailed, func() {
		_ = v.Retry(context.Background())
	})
	return err
}

// BuildPanel assembles the risk panel view model
func BuildPanel(a covid.RiskAssessment, c covid.Country, vaccinationPct *float64) render.RiskPanel {
	level := Level(a.RiskLevel)
	return render.RiskPanel{
		Country:         a.Country,
		Flag:            c.CountryInfo.Flag,
		Level:           a.RiskLevel,
		LevelClass:      LevelClass(level),
		Score:           ScoreLabel(a.RiskScore),
		Angle:           PointerAngle(a.RiskScore),
		Factors:         Bars(Factors(a, c, vaccinationPct)),
		Recommendations: Recommendations(level),
	}
}

// ScoreLabel renders a score out of ten: 7 -> "7/10"
func ScoreLabel(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64) + "/10"
}
