package handlers

import (
	"net/http"
	"sort"

	"github.com/wonny/covidwatch/internal/scheduler"
)

// JobStatter reports scheduled job statistics
type JobStatter interface {
	GetJobStats() map[string]scheduler.JobStats
}

// JobsHandler exposes the background refresh and cleanup jobs
type JobsHandler struct {
	jobs JobStatter
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(jobs JobStatter) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// List handles GET /api/jobs, ordered by job name
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	stats := h.jobs.GetJobStats()

	out := make([]scheduler.JobStats, 0, len(stats))
	for _, s := range stats {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobName < out[j].JobName })

	respondJSON(w, http.StatusOK, out)
}
