package tracker

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/external/diseasesh"
	"github.com/wonny/covidwatch/internal/snapshot"
	"github.com/wonny/covidwatch/pkg/logger"
)

var errUpstream = errors.New("upstream down")

type fakeUpstream struct {
	mu         sync.Mutex
	countries  []covid.Country
	global     covid.Global
	historical map[string]covid.Historical
	vaccine    map[string]covid.VaccineCoverage
	fail       bool
	calls      map[string]int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		countries: []covid.Country{
			{Country: "USA", Cases: 1000, Deaths: 60, Recovered: 900, Active: 40, Population: 1000},
			{Country: "India", Cases: 500, Deaths: 1, Recovered: 400, Active: 99, Population: 1_000_000},
			{Country: "S. Korea", Cases: 10, Population: 100},
		},
		global: covid.Global{Cases: 1510, Deaths: 61, Recovered: 1300, Active: 139},
		historical: map[string]covid.Historical{
			"USA": {Country: "USA", Timeline: covid.Timeline{Cases: covid.Series{{Date: "1/1/21", Value: 1}}}},
		},
		vaccine: map[string]covid.VaccineCoverage{
			"USA": {Country: "USA", Timeline: covid.Series{{Date: "1/1/21", Value: 7}}},
		},
		calls: map[string]int{},
	}
}

func (f *fakeUpstream) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if f.fail {
		return errUpstream
	}
	return nil
}

func (f *fakeUpstream) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeUpstream) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *fakeUpstream) Global(context.Context) (covid.Global, error) {
	if err := f.hit("global"); err != nil {
		return covid.Global{}, err
	}
	return f.global, nil
}

func (f *fakeUpstream) Countries(context.Context) ([]covid.Country, error) {
	if err := f.hit("countries"); err != nil {
		return nil, err
	}
	return f.countries, nil
}

func (f *fakeUpstream) Historical(_ context.Context, country string, days int) (covid.Historical, error) {
	if err := f.hit(fmt.Sprintf("historical:%s:%d", country, days)); err != nil {
		return covid.Historical{}, err
	}
	h, ok := f.historical[country]
	if !ok {
		return covid.Historical{}, diseasesh.ErrNotFound
	}
	return h, nil
}

func (f *fakeUpstream) Vaccine(_ context.Context, country string) (covid.VaccineCoverage, error) {
	if err := f.hit("vaccine:" + country); err != nil {
		return covid.VaccineCoverage{}, err
	}
	v, ok := f.vaccine[country]
	if !ok {
		return covid.VaccineCoverage{}, diseasesh.ErrNotFound
	}
	return v, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc      *Service
	upstream *fakeUpstream
	cache    *MemoryCache
	store    *snapshot.BoltStore
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := snapshot.OpenBolt(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clk := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewMemoryCache()
	cache.now = clk.now

	up := newFakeUpstream()
	svc := NewService(up, cache, store, logger.Nop(), Options{TTL: time.Hour})
	svc.now = clk.now

	return &fixture{svc: svc, upstream: up, cache: cache, store: store, clock: clk}
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(newFakeUpstream(), NewMemoryCache(), nil, logger.Nop(), Options{})
	assert.Equal(t, time.Hour, svc.opts.TTL)
	assert.Equal(t, 30, svc.opts.DefaultDays)
}

func TestCountries_CachedForTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	countries, err := f.svc.Countries(ctx)
	require.NoError(t, err)
	assert.Len(t, countries, 3)
	assert.Equal(t, 1, f.upstream.count("countries"))

	f.clock.advance(59 * time.Minute)
	_, err = f.svc.Countries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.upstream.count("countries"), "fresh cache must not refetch")

	f.clock.advance(2 * time.Minute)
	_, err = f.svc.Countries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.upstream.count("countries"), "expired cache refetches")
}

func TestGlobal_WithRates(t *testing.T) {
	f := newFixture(t)

	g, err := f.svc.Global(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1510), g.Cases)
	assert.InDelta(t, 61.0/1510*100, g.FatalityRate, 1e-9)
}

func TestFallbackToSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// first refresh writes backups
	require.NoError(t, f.svc.Refresh(ctx))

	f.upstream.setFail(true)
	f.clock.advance(2 * time.Hour)

	countries, err := f.svc.Countries(ctx)
	require.NoError(t, err)
	assert.Len(t, countries, 3)

	g, err := f.svc.Global(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1510), g.Cases)
}

func TestUnavailableWithoutBackup(t *testing.T) {
	f := newFixture(t)
	f.upstream.setFail(true)

	_, err := f.svc.Countries(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCountry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Country(ctx, "usa")
	require.NoError(t, err)
	assert.Equal(t, "USA", c.Country)

	_, err = f.svc.Country(ctx, "Atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Compare(ctx, nil)
	assert.ErrorIs(t, err, ErrNoCountries)
	_, err = f.svc.Compare(ctx, []string{" ", ""})
	assert.ErrorIs(t, err, ErrNoCountries)

	got, err := f.svc.Compare(ctx, []string{"india", "Atlantis", "USA"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "India", got[0].Country)
	assert.Equal(t, "USA", got[1].Country)
}

func TestHistorical(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h, err := f.svc.Historical(ctx, "USA", 0)
	require.NoError(t, err)
	assert.Equal(t, "USA", h.Country)
	assert.Equal(t, 1, f.upstream.count("historical:USA:30"), "default is 30 days")

	_, err = f.svc.Historical(ctx, "USA", 30)
	require.NoError(t, err)
	assert.Equal(t, 1, f.upstream.count("historical:USA:30"), "cached per name and days")

	_, err = f.svc.Historical(ctx, "USA", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, f.upstream.count("historical:USA:7"))

	_, err = f.svc.Historical(ctx, "Atlantis", 30)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistorical_BackupOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Historical(ctx, "USA", 30)
	require.NoError(t, err)

	f.upstream.setFail(true)
	f.clock.advance(2 * time.Hour)

	h, err := f.svc.Historical(ctx, "USA", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.Timeline.Cases.Last())

	_, err = f.svc.Historical(ctx, "India", 30)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestVaccine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Vaccine(ctx, "USA")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Timeline.Last())

	_, err = f.svc.Vaccine(ctx, "usa")
	require.NoError(t, err)
	assert.Equal(t, 1, f.upstream.count("vaccine:USA"), "cache key is case-insensitive")

	_, err = f.svc.Vaccine(ctx, "India")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRiskAssessment(t *testing.T) {
	f := newFixture(t)

	ra, err := f.svc.RiskAssessment(context.Background(), "usa")
	require.NoError(t, err)
	assert.Equal(t, "USA", ra.Country)
	// 40/1000*1e6 = 40000 active per million -> 5, cfr 6% -> 5
	assert.Equal(t, 10.0, ra.RiskScore)
	assert.Equal(t, covid.RiskVeryHigh, ra.RiskLevel)
	assert.Equal(t, f.clock.now().UnixMilli(), ra.Timestamp)

	_, err = f.svc.RiskAssessment(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOnRefresh(t *testing.T) {
	f := newFixture(t)

	var events []RefreshEvent
	f.svc.OnRefresh(func(ev RefreshEvent) { events = append(events, ev) })

	require.NoError(t, f.svc.Refresh(context.Background()))
	require.Len(t, events, 1)
	assert.Equal(t, "refresh", events[0].Type)
	assert.Equal(t, 3, events[0].Countries)
	assert.Equal(t, f.clock.now().UnixMilli(), events[0].Updated)
	assert.Equal(t, f.clock.now().UnixMilli(), f.svc.Status().LastRefresh)

	f.upstream.setFail(true)
	assert.Error(t, f.svc.Refresh(context.Background()))
	assert.Len(t, events, 1, "failed refresh publishes nothing")
}

func TestCleanupAndPrune(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Refresh(ctx))
	f.clock.advance(2 * time.Hour)
	assert.Equal(t, 2, f.svc.CleanExpired(ctx))

	// snapshots are stamped with wall-clock time
	f.svc.now = func() time.Time { return time.Now().Add(time.Minute) }
	removed, err := f.svc.PruneSnapshots(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(context.Background(), "india", &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, covid.CSVHeader, rows[0])
	assert.Equal(t, "India", rows[1][0])

	err = f.svc.ExportCSV(context.Background(), "Atlantis", &buf)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, "india_covid_data.csv", CSVFilename("india"))
}
