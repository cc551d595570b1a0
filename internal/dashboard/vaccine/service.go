package vaccine

import (
	"context"
	"fmt"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/dashboard"
	"github.com/wonny/covidwatch/internal/dashboard/format"
	"github.com/wonny/covidwatch/internal/dashboard/render"
	"github.com/wonny/covidwatch/pkg/logger"
)

// Messages shown by the view
const (
	MsgLoading      = "Loading vaccination data..."
	MsgCountryError = "Error loading country data. Please try again."
)

// Fetcher loads country and vaccination data
type Fetcher interface {
	Country(ctx context.Context, name string) (covid.Country, error)
	Vaccination(ctx context.Context, c covid.Country) (covid.Vaccination, error)
}

// Renderer is the output port of the vaccination view
type Renderer interface {
	render.VaccineRenderer
	render.StatusRenderer
}

// Service answers vaccination lookups through the cache
type Service struct {
	fetcher  Fetcher
	renderer Renderer
	cache    *Cache
	logger   *logger.Logger
	fence    dashboard.Fence
}

// NewService creates a vaccination service
func NewService(f Fetcher, r Renderer, cache *Cache, log *logger.Logger) *Service {
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	return &Service{
		fetcher:  f,
		renderer: r,
		cache:    cache,
		logger:   log.Component("vaccine"),
	}
}

// Lookup displays the vaccination panel of a country.
// A fresh cache entry is displayed without any fetch.
func (s *Service) Lookup(ctx context.Context, name string) error {
	id := s.fence.Next()

	if v, ok := s.cache.Get(name); ok {
		s.renderer.RenderVaccine(BuildPanel(v))
		return nil
	}

	s.renderer.ShowLoading(MsgLoading)

	country, err := s.fetcher.Country(ctx, name)
	if err != nil {
		return s.fail(id, name, MsgCountryError, fmt.Errorf("country: %w", err))
	}
	if !s.fence.Current(id) {
		return dashboard.ErrSuperseded
	}

	v, err := s.fetch(ctx, name, country)
	if err != nil {
		return s.fail(id, name, unavailable(name), err)
	}
	if !s.fence.Current(id) {
		return dashboard.ErrSuperseded
	}

	s.renderer.RenderVaccine(BuildPanel(v))
	return nil
}

// Coverage returns the share of the population with at least one dose
func (s *Service) Coverage(ctx context.Context, c covid.Country) (float64, bool) {
	v, ok := s.cache.Get(c.Country)
	if !ok {
		var err error
		if v, err = s.fetch(ctx, c.Country, c); err != nil {
			s.logger.WithError(err).WithField("country", c.Country).Debug("Vaccination coverage unavailable")
			return 0, false
		}
	}
	if v.Population == 0 {
		return 0, false
	}
	return Stats(v).PeoplePct, true
}

func (s *Service) fetch(ctx context.Context, name string, country covid.Country) (covid.Vaccination, error) {
	v, err := s.fetcher.Vaccination(ctx, country)
	if err != nil {
		return covid.Vaccination{}, fmt.Errorf("vaccination: %w", err)
	}
	s.cache.Put(name, v)
	return v, nil
}

func (s *Service) fail(id uint64, name, msg string, err error) error {
	if !s.fence.Current(id) {
		return dashboard.ErrSuperseded
	}
	s.logger.WithError(err).WithField("country", name).Warn("Error fetching vaccination data")
	s.renderer.ShowError(msg, func() {
		_ = s.Lookup(context.Background(), name)
	})
	return err
}

func unavailable(name string) string {
	return fmt.Sprintf("Sorry, vaccination data is not available for %s", name)
}

// BuildPanel assembles the vaccination view model
func BuildPanel(v covid.Vaccination) render.VaccinePanel {
	s := Stats(v)
	panel := render.VaccinePanel{
		Country:    v.Country,
		Flag:       v.Flag,
		Population: "Population: " + format.Number(v.Population),
		Stats: []render.Stat{
			{Label: "Total Vaccinations", Value: format.Number(s.Total)},
			{Label: "People Vaccinated", Value: format.Number(s.People)},
			{Label: "People Vaccinated (%)", Value: format.Percent(s.PeoplePct, 1)},
			{Label: "Fully Vaccinated", Value: format.Number(s.Fully)},
			{Label: "Fully Vaccinated (%)", Value: format.Percent(s.FullyPct, 1)},
			{Label: "Doses per 100", Value: fmt.Sprintf("%.1f", s.DosesPerHundred)},
		},
	}

	if len(v.Timeline) > 0 {
		values := make([]float64, len(v.Timeline))
		for i, p := range v.Timeline {
			values[i] = float64(p.Value)
		}
		panel.Timeline = &render.Chart{
			ID:     render.ChartVaccination,
			Title:  v.Country + " Vaccination Progress",
			Kind:   render.LineChart,
			YLabel: "Number of Vaccinations",
			Labels: v.Timeline.Labels(),
			Datasets: []render.Dataset{{
				Label:  "Total Vaccinations",
				Color:  "rgba(75, 192, 192, 1)",
				Values: values,
			}},
		}
	}
	return panel
}
