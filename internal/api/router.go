package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/covidwatch/internal/api/handlers"
	"github.com/wonny/covidwatch/pkg/logger"
	"github.com/wonny/covidwatch/pkg/metrics"
)

// Routes are the handlers mounted by NewRouter
type Routes struct {
	Covid     *handlers.CovidHandler
	Dashboard *handlers.DashboardHandler // optional
	Jobs      *handlers.JobsHandler      // optional
	Stream    http.Handler               // optional websocket endpoint
	Metrics   *metrics.Manager           // optional
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(routes Routes, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", routes.Covid.Health).Methods("GET")

	if routes.Metrics.Enabled() {
		r.Handle("/metrics", routes.Metrics.Handler()).Methods("GET")
	}
	if routes.Stream != nil {
		r.Handle("/ws", routes.Stream)
	}
	if routes.Dashboard != nil {
		r.HandleFunc("/", routes.Dashboard.Index).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/countries", routes.Covid.GetCountries).Methods("GET")
	api.HandleFunc("/global", routes.Covid.GetGlobal).Methods("GET")
	api.HandleFunc("/country/{name}", routes.Covid.GetCountry).Methods("GET")
	api.HandleFunc("/historical/{name}", routes.Covid.GetHistorical).Methods("GET")
	api.HandleFunc("/vaccine/{name}", routes.Covid.GetVaccine).Methods("GET")
	api.HandleFunc("/compare", routes.Covid.Compare).Methods("GET")
	api.HandleFunc("/risk-assessment/{name}", routes.Covid.GetRiskAssessment).Methods("GET")
	api.HandleFunc("/export/csv/{name}", routes.Covid.ExportCSV).Methods("GET")
	if routes.Jobs != nil {
		api.HandleFunc("/jobs", routes.Jobs.List).Methods("GET")
	}

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(metricsMiddleware(routes.Metrics))
	r.Use(recoveryMiddleware(log))

	// CORS wraps the router so preflight requests never reach route matching
	return corsMiddleware(r)
}
