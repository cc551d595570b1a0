package jobs

import (
	"context"
	"time"

	"github.com/wonny/covidwatch/pkg/logger"
)

// DefaultSnapshotRetention is how long backup snapshots are kept
const DefaultSnapshotRetention = 7 * 24 * time.Hour

// Maintainer exposes the housekeeping operations of the tracker
type Maintainer interface {
	CleanExpired(ctx context.Context) int
	PruneSnapshots(ctx context.Context, maxAge time.Duration) (int, error)
}

// CacheCleanupJob drops expired cache entries and old snapshots
type CacheCleanupJob struct {
	target    Maintainer
	schedule  string
	retention time.Duration
	logger    *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job; an empty schedule means every 5 minutes
func NewCacheCleanupJob(target Maintainer, schedule string, log *logger.Logger) *CacheCleanupJob {
	if schedule == "" {
		schedule = "0 */5 * * * *"
	}
	return &CacheCleanupJob{
		target:    target,
		schedule:  schedule,
		retention: DefaultSnapshotRetention,
		logger:    log,
	}
}

// WithRetention overrides the snapshot retention
func (j *CacheCleanupJob) WithRetention(d time.Duration) *CacheCleanupJob {
	j.retention = d
	return j
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule
func (j *CacheCleanupJob) Schedule() string {
	return j.schedule
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache cleanup")

	if count := j.target.CleanExpired(ctx); count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}

	if j.retention <= 0 {
		return nil
	}

	pruned, err := j.target.PruneSnapshots(ctx, j.retention)
	if err != nil {
		return err
	}
	if pruned > 0 {
		j.logger.WithField("pruned", pruned).Info("Old snapshots pruned")
	}

	return nil
}
