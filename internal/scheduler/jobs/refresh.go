package jobs

import (
	"context"

	"github.com/wonny/covidwatch/pkg/logger"
)

// Refresher pulls fresh data from upstream
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshJob reloads global and country data into the cache
type RefreshJob struct {
	refresher Refresher
	schedule  string
	logger    *logger.Logger
}

// NewRefreshJob creates a refresh job; an empty schedule means hourly
func NewRefreshJob(r Refresher, schedule string, log *logger.Logger) *RefreshJob {
	if schedule == "" {
		schedule = "0 0 * * * *"
	}
	return &RefreshJob{
		refresher: r,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "covid_refresh"
}

// Schedule returns the cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes the refresh
func (j *RefreshJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled COVID data refresh")
	return j.refresher.Refresh(ctx)
}
