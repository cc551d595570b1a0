package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/tracker"
	"github.com/wonny/covidwatch/pkg/logger"
)

// Backend answers the /api queries
type Backend interface {
	Global(ctx context.Context) (covid.Global, error)
	Countries(ctx context.Context) ([]covid.Country, error)
	Country(ctx context.Context, name string) (covid.Country, error)
	Historical(ctx context.Context, name string, days int) (covid.Historical, error)
	Vaccine(ctx context.Context, name string) (covid.VaccineCoverage, error)
	Compare(ctx context.Context, names []string) ([]covid.ComparisonEntry, error)
	RiskAssessment(ctx context.Context, name string) (covid.RiskAssessment, error)
	ExportCSV(ctx context.Context, name string, w io.Writer) error
	Status() tracker.Status
}

// CovidHandler handles the /api endpoints
// ⭐ SSOT: COVID API 핸들러는 이 구조체에서만
type CovidHandler struct {
	backend Backend
	logger  *logger.Logger
}

// NewCovidHandler creates a new COVID handler
func NewCovidHandler(backend Backend, log *logger.Logger) *CovidHandler {
	return &CovidHandler{
		backend: backend,
		logger:  log.Component("api"),
	}
}

// GetCountries returns every country
// GET /api/countries
func (h *CovidHandler) GetCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.backend.Countries(r.Context())
	if err != nil {
		h.log(r).WithError(err).Error("Failed to get countries")
		respondError(w, http.StatusInternalServerError, "Data not available")
		return
	}
	respondJSON(w, http.StatusOK, countries)
}

// GetGlobal returns worldwide totals
// GET /api/global
func (h *CovidHandler) GetGlobal(w http.ResponseWriter, r *http.Request) {
	global, err := h.backend.Global(r.Context())
	if err != nil {
		h.log(r).WithError(err).Error("Failed to get global data")
		respondError(w, http.StatusInternalServerError, "Data not available")
		return
	}
	respondJSON(w, http.StatusOK, global)
}

// GetCountry returns one country
// GET /api/country/{name}
func (h *CovidHandler) GetCountry(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	country, err := h.backend.Country(r.Context(), name)
	if err != nil {
		h.fail(w, r, err, name, "Country not found", "Data not available")
		return
	}
	respondJSON(w, http.StatusOK, country)
}

// GetHistorical returns the timeline of a country, or of the world for "all"
// GET /api/historical/{name}?days=30
func (h *CovidHandler) GetHistorical(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	// invalid values fall back to the default window
	days := 0
	if s := r.URL.Query().Get("days"); s != "" {
		if d, err := strconv.Atoi(s); err == nil && d > 0 {
			days = d
		}
	}

	history, err := h.backend.Historical(r.Context(), name, days)
	if err != nil {
		h.fail(w, r, err, name, "Historical data not available", "Failed to fetch historical data")
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// GetVaccine returns vaccine coverage of a country
// GET /api/vaccine/{name}
func (h *CovidHandler) GetVaccine(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	coverage, err := h.backend.Vaccine(r.Context(), name)
	if err != nil {
		h.fail(w, r, err, name, "Vaccine data not available", "Failed to fetch vaccine data")
		return
	}
	respondJSON(w, http.StatusOK, coverage)
}

// Compare returns the comparison fields of the requested countries
// GET /api/compare?countries=USA,India
func (h *CovidHandler) Compare(w http.ResponseWriter, r *http.Request) {
	names := strings.Split(r.URL.Query().Get("countries"), ",")

	entries, err := h.backend.Compare(r.Context(), names)
	if errors.Is(err, tracker.ErrNoCountries) {
		respondError(w, http.StatusBadRequest, "No countries specified")
		return
	}
	if err != nil {
		h.log(r).WithError(err).Error("Failed to compare countries")
		respondError(w, http.StatusInternalServerError, "Data not available")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetRiskAssessment scores a country
// GET /api/risk-assessment/{name}
func (h *CovidHandler) GetRiskAssessment(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	assessment, err := h.backend.RiskAssessment(r.Context(), name)
	if err != nil {
		h.fail(w, r, err, name, "Country not found", "Data not available")
		return
	}
	respondJSON(w, http.StatusOK, assessment)
}

// ExportCSV downloads a country as CSV
// GET /api/export/csv/{name}
func (h *CovidHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var buf bytes.Buffer
	if err := h.backend.ExportCSV(r.Context(), name, &buf); err != nil {
		h.fail(w, r, err, name, "Country not found", "Data not available")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+tracker.CSVFilename(name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Health reports service status
// GET /health
func (h *CovidHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "covidwatch",
		"tracker": h.backend.Status(),
	})
}

// log returns the request scoped logger set by the router, if any
func (h *CovidHandler) log(r *http.Request) *logger.Logger {
	if l := logger.FromContext(r.Context(), nil); l != nil {
		return l.Component("api")
	}
	return h.logger
}

// fail maps tracker errors onto 404 and 500 responses
func (h *CovidHandler) fail(w http.ResponseWriter, r *http.Request, err error, name, notFound, unavailable string) {
	if errors.Is(err, tracker.ErrNotFound) {
		h.log(r).WithError(err).WithField("country", name).Debug("Not found")
		respondError(w, http.StatusNotFound, notFound)
		return
	}
	h.log(r).WithError(err).WithField("country", name).Error("Request failed")
	respondError(w, http.StatusInternalServerError, unavailable)
}
