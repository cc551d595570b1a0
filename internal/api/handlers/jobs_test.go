package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/covidwatch/internal/scheduler"
)

type fakeJobs map[string]scheduler.JobStats

func (f fakeJobs) GetJobStats() map[string]scheduler.JobStats { return f }

func TestJobsHandler_List(t *testing.T) {
	h := NewJobsHandler(fakeJobs{
		"covid_refresh": {JobName: "covid_refresh", Schedule: "0 */10 * * * *", TotalRuns: 4, SuccessCount: 3, FailureCount: 1, SuccessRate: 0.75},
		"cache_cleanup": {JobName: "cache_cleanup", Schedule: "@hourly"},
	})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []scheduler.JobStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "cache_cleanup", got[0].JobName)
	assert.Equal(t, "covid_refresh", got[1].JobName)
	assert.Equal(t, 0.75, got[1].SuccessRate)
	assert.Nil(t, got[0].LastRun)
}

func TestJobsHandler_Empty(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJobsHandler(fakeJobs{}).List(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
