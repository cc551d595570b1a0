package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/external/diseasesh"
	"github.com/wonny/covidwatch/internal/snapshot"
	"github.com/wonny/covidwatch/pkg/logger"
	"github.com/wonny/covidwatch/pkg/metrics"
	"github.com/wonny/covidwatch/pkg/redis"
)

var (
	// ErrNotFound is returned for an unknown country or missing upstream data
	ErrNotFound = errors.New("not found")
	// ErrNoCountries is returned when Compare gets no names
	ErrNoCountries = errors.New("no countries specified")
	// ErrUnavailable is returned when neither upstream nor backup has data
	ErrUnavailable = errors.New("data not available")
)

// Upstream is the source of fresh data
type Upstream interface {
	Global(ctx context.Context) (covid.Global, error)
	Countries(ctx context.Context) ([]covid.Country, error)
	Historical(ctx context.Context, country string, days int) (covid.Historical, error)
	Vaccine(ctx context.Context, country string) (covid.VaccineCoverage, error)
}

// RefreshEvent is published after every successful refresh
type RefreshEvent struct {
	Type      string `json:"type"`
	Updated   int64  `json:"updated"` // epoch ms
	Countries int    `json:"countries"`
}

// Options configures a Service
type Options struct {
	TTL         time.Duration // CACHE_EXPIRATION
	DefaultDays int           // default ?days= for historical
}

// Service answers every /api query from cache, upstream, or backup
// ⭐ SSOT: 데이터 조회 경로 (cache → upstream → snapshot)
type Service struct {
	upstream Upstream
	cache    Cache
	store    snapshot.Store
	metrics  *metrics.Manager
	logger   *logger.Logger
	opts     Options
	now      func() time.Time

	refreshMu   sync.Mutex
	listenersMu sync.RWMutex
	listeners   []func(RefreshEvent)
	lastRefresh atomic.Int64 // epoch ms
}

// NewService creates a tracker service
func NewService(upstream Upstream, cache Cache, store snapshot.Store, log *logger.Logger, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = 30
	}
	return &Service{
		upstream: upstream,
		cache:    cache,
		store:    store,
		logger:   log.Component("tracker"),
		opts:     opts,
		now:      time.Now,
	}
}

// WithMetrics records cache and refresh metrics on m
func (s *Service) WithMetrics(m *metrics.Manager) *Service {
	s.metrics = m
	return s
}

// OnRefresh registers fn to be called after each successful refresh
func (s *Service) OnRefresh(fn func(RefreshEvent)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Refresh fetches global and country data and updates cache and backups.
// Each payload is stored independently; the error reports any failure.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Service) refreshLocked(ctx context.Context) error {
	var errs []error
	count := 0

	global, err := s.upstream.Global(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("global: %w", err))
	} else {
		s.keep(ctx, redis.GlobalKey(), snapshot.KeyGlobal, global)
	}

	countries, err := s.upstream.Countries(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("countries: %w", err))
	} else {
		count = len(countries)
		s.keep(ctx, redis.CountriesKey(), snapshot.KeyCountries, countries)
		s.metrics.SetTrackedCountries(count)
	}

	now := s.now()
	if len(errs) > 0 {
		s.metrics.RecordRefresh(metrics.OutcomeFailure, now)
		err := errors.Join(errs...)
		s.logger.WithError(err).Warn("COVID data refresh failed")
		return err
	}

	s.lastRefresh.Store(now.UnixMilli())
	s.metrics.RecordRefresh(metrics.OutcomeSuccess, now)
	s.logger.WithField("countries", count).Info("COVID data updated")

	s.publish(RefreshEvent{Type: "refresh", Updated: now.UnixMilli(), Countries: count})
	return nil
}

// keep writes v to the cache and to the backup store
func (s *Service) keep(ctx context.Context, cacheKey, snapKey string, v interface{}) {
	if err := s.cache.Set(ctx, cacheKey, v, s.opts.TTL); err != nil {
		s.logger.WithError(err).WithField("key", cacheKey).Warn("Cache write failed")
	}
	if s.store == nil {
		return
	}
	if err := snapshot.SaveJSON(ctx, s.store, snapKey, v); err != nil {
		s.logger.WithError(err).WithField("key", snapKey).Warn("Snapshot write failed")
	}
}

func (s *Service) publish(ev RefreshEvent) {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	for _, fn := range s.listeners {
		fn(ev)
	}
}

// cacheGet treats cache errors as misses
func (s *Service) cacheGet(ctx context.Context, name, key string, dest interface{}) bool {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
	}
	if found {
		s.metrics.RecordCacheHit(name)
	} else {
		s.metrics.RecordCacheMiss(name)
	}
	return found
}

// fromBackup loads a snapshot and re-caches it for one TTL
func (s *Service) fromBackup(ctx context.Context, cacheKey, snapKey string, dest interface{}) bool {
	if s.store == nil {
		return false
	}
	savedAt, err := snapshot.LoadJSON(ctx, s.store, snapKey, dest)
	if err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) {
			s.logger.WithError(err).WithField("key", snapKey).Warn("Snapshot read failed")
		}
		return false
	}

	s.metrics.RecordSnapshotFallback()
	s.logger.WithFields(map[string]interface{}{
		"key":      snapKey,
		"saved_at": savedAt,
	}).Warn("Serving backup snapshot")

	if err := s.cache.Set(ctx, cacheKey, dest, s.opts.TTL); err != nil {
		s.logger.WithError(err).WithField("key", cacheKey).Warn("Cache write failed")
	}
	return true
}

// ensure serves cacheKey, refreshing on a miss and falling back to backup
func (s *Service) ensure(ctx context.Context, name, cacheKey, snapKey string, dest interface{}) error {
	if s.cacheGet(ctx, name, cacheKey, dest) {
		return nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// another caller may have refreshed while we waited
	if found, _ := s.cache.Get(ctx, cacheKey, dest); found {
		return nil
	}

	refreshErr := s.refreshLocked(ctx)
	if found, _ := s.cache.Get(ctx, cacheKey, dest); found {
		return nil
	}

	if s.fromBackup(ctx, cacheKey, snapKey, dest) {
		return nil
	}

	return fmt.Errorf("%s: %w: %v", name, ErrUnavailable, refreshErr)
}

// Global returns worldwide totals with derived rates
func (s *Service) Global(ctx context.Context) (covid.Global, error) {
	var g covid.Global
	if err := s.ensure(ctx, "global", redis.GlobalKey(), snapshot.KeyGlobal, &g); err != nil {
		return covid.Global{}, err
	}
	return g.WithRates(), nil
}

// Countries returns every country
func (s *Service) Countries(ctx context.Context) ([]covid.Country, error) {
	var countries []covid.Country
	if err := s.ensure(ctx, "countries", redis.CountriesKey(), snapshot.KeyCountries, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

// Country finds one country by case-insensitive name
func (s *Service) Country(ctx context.Context, name string) (covid.Country, error) {
	countries, err := s.Countries(ctx)
	if err != nil {
		return covid.Country{}, err
	}
	for _, c := range countries {
		if c.Matches(name) {
			return c, nil
		}
	}
	return covid.Country{}, fmt.Errorf("country %q: %w", name, ErrNotFound)
}

// Historical returns the last `days` days for a country ("all" for global)
func (s *Service) Historical(ctx context.Context, name string, days int) (covid.Historical, error) {
	if days <= 0 {
		days = s.opts.DefaultDays
	}

	cacheKey := redis.HistoricalKey(strings.ToLower(name), days)
	snapKey := snapshot.HistoricalKey(name, days)

	var h covid.Historical
	if s.cacheGet(ctx, "historical", cacheKey, &h) {
		return h, nil
	}

	h, err := s.upstream.Historical(ctx, name, days)
	if err == nil {
		s.keep(ctx, cacheKey, snapKey, h)
		return h, nil
	}
	if errors.Is(err, diseasesh.ErrNotFound) {
		return covid.Historical{}, fmt.Errorf("historical %q: %w", name, ErrNotFound)
	}

	s.logger.WithError(err).WithField("country", name).Warn("Error fetching historical data")
	if s.fromBackup(ctx, cacheKey, snapKey, &h) {
		return h, nil
	}
	return covid.Historical{}, fmt.Errorf("historical %q: %w: %v", name, ErrUnavailable, err)
}

// Vaccine returns vaccine coverage for a country
func (s *Service) Vaccine(ctx context.Context, name string) (covid.VaccineCoverage, error) {
	cacheKey := redis.VaccineKey(strings.ToLower(name))
	snapKey := snapshot.VaccineKey(name)

	var v covid.VaccineCoverage
	if s.cacheGet(ctx, "vaccine", cacheKey, &v) {
		return v, nil
	}

	v, err := s.upstream.Vaccine(ctx, name)
	if err == nil {
		s.keep(ctx, cacheKey, snapKey, v)
		return v, nil
	}
	if errors.Is(err, diseasesh.ErrNotFound) {
		return covid.VaccineCoverage{}, fmt.Errorf("vaccine %q: %w", name, ErrNotFound)
	}

	s.logger.WithError(err).WithField("country", name).Warn("Error fetching vaccine data")
	if s.fromBackup(ctx, cacheKey, snapKey, &v) {
		return v, nil
	}
	return covid.VaccineCoverage{}, fmt.Errorf("vaccine %q: %w: %v", name, ErrUnavailable, err)
}

// Compare projects the named countries in request order; unknown names are skipped
func (s *Service) Compare(ctx context.Context, names []string) ([]covid.ComparisonEntry, error) {
	var wanted []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			wanted = append(wanted, n)
		}
	}
	if len(wanted) == 0 {
		return nil, ErrNoCountries
	}

	countries, err := s.Countries(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]covid.ComparisonEntry, 0, len(wanted))
	for _, name := range wanted {
		for i := range countries {
			if countries[i].Matches(name) {
				out = append(out, countries[i].Compare())
				break
			}
		}
	}
	return out, nil
}

// RiskAssessment scores one country
func (s *Service) RiskAssessment(ctx context.Context, name string) (covid.RiskAssessment, error) {
	c, err := s.Country(ctx, name)
	if err != nil {
		return covid.RiskAssessment{}, err
	}
	return Assess(c, s.now()), nil
}

// CleanExpired drops expired cache entries
func (s *Service) CleanExpired(ctx context.Context) int {
	return s.cache.CleanExpired(ctx)
}

// PruneSnapshots deletes backups older than maxAge
func (s *Service) PruneSnapshots(ctx context.Context, maxAge time.Duration) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	return s.store.Prune(ctx, s.now().Add(-maxAge))
}

// Status is the health summary of the service
type Status struct {
	Cache       CacheStats `json:"cache"`
	LastRefresh int64      `json:"last_refresh,omitempty"` // epoch ms, 0 = never
	CacheTTL    string     `json:"cache_ttl"`
}

// Status reports cache usage and the last successful refresh
func (s *Service) Status() Status {
	return Status{
		Cache:       s.cache.Stats(),
		LastRefresh: s.lastRefresh.Load(),
		CacheTTL:    s.opts.TTL.String(),
	}
}
