package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/covidwatch/internal/external/diseasesh"
	"github.com/wonny/covidwatch/internal/snapshot"
	"github.com/wonny/covidwatch/internal/tracker"
	"github.com/wonny/covidwatch/pkg/config"
	"github.com/wonny/covidwatch/pkg/httputil"
	"github.com/wonny/covidwatch/pkg/logger"
	"github.com/wonny/covidwatch/pkg/metrics"
	"github.com/wonny/covidwatch/pkg/redis"
)

// backend bundles the tracker service and the resources it holds open
type backend struct {
	svc   *tracker.Service
	redis *redis.Client
	store snapshot.Store
}

// openBackend wires redis, the snapshot store and disease.sh into a tracker service
func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Manager) (*backend, error) {
	// 1. Redis (disabled config -> in-memory cache)
	rc, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if rc.Enabled() {
		log.WithField("addr", cfg.RedisAddr()).Info("Connected to redis")
	}

	// 2. Snapshot store (PostgreSQL or bbolt)
	store, err := snapshot.Open(ctx, cfg)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	if cfg.UsePostgres() {
		log.Info("Snapshots stored in PostgreSQL")
	} else {
		log.WithField("data_dir", cfg.Storage.DataDir).Info("Snapshots stored in bbolt")
	}

	// 3. Upstream client, rate limited per process and across instances
	httpClient := httputil.New(cfg, log).
		WithLocalRateLimit(cfg.Upstream.RateLimit).
		WithRateLimiter(redis.NewRateLimiter(rc, "covidwatch"), redis.UpstreamRateLimit(cfg.Upstream.RateLimit))

	upstream := diseasesh.NewClient(httpClient, log, cfg.Upstream.BaseURL).WithMetrics(m)

	// 4. Tracker
	svc := tracker.NewService(upstream, tracker.NewCache(rc), store, log, tracker.Options{
		TTL:         cfg.Cache.TTL,
		DefaultDays: cfg.Cache.HistoricalDays,
	}).WithMetrics(m)

	return &backend{svc: svc, redis: rc, store: store}, nil
}

// Close releases the store and the redis connection
func (b *backend) Close() error {
	return errors.Join(b.store.Close(), b.redis.Close())
}
