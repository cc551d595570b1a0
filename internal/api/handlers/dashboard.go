package handlers

import (
	"net/http"

	"github.com/wonny/covidwatch/internal/dashboard/overview"
	"github.com/wonny/covidwatch/internal/dashboard/render/html"
	"github.com/wonny/covidwatch/pkg/logger"
)

// PageTitle is the title of the HTML dashboard
const PageTitle = "COVID-19 Tracker"

// DashboardHandler serves the HTML overview page
type DashboardHandler struct {
	data   overview.Fetcher
	logger *logger.Logger
}

// NewDashboardHandler creates a handler rendering data into an HTML page
func NewDashboardHandler(data overview.Fetcher, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		data:   data,
		logger: log.Component("dashboard"),
	}
}

// Index renders the overview; failed sections show their error message
// GET /
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	log := h.logger
	if l := logger.FromContext(r.Context(), nil); l != nil {
		log = l.Component("dashboard")
	}
	page := html.New(PageTitle)

	if err := overview.New(h.data, page, log).Load(r.Context()); err != nil {
		log.WithError(err).Warn("Overview rendered with errors")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Write(w); err != nil {
		log.WithError(err).Error("Failed to write page")
	}
}
