package overview

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/dashboard/render"
	"github.com/wonny/covidwatch/pkg/logger"
)

func ptr(f float64) *float64 { return &f }

func TestMarkerColor(t *testing.T) {
	tests := []struct {
		cases int64
		want  string
	}{
		{2000000, "#FF0000"},
		{1000000, "#FF7777"},
		{500001, "#FF7777"},
		{500000, "#FFAAAA"},
		{100001, "#FFAAAA"},
		{100000, "#FFD4D4"},
		{10001, "#FFD4D4"},
		{10000, "#FFEEEE"},
		{0, "#FFEEEE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MarkerColor(tt.cases), "cases %d", tt.cases)
	}
}

func TestMarkers_SkipsMissingCoordinates(t *testing.T) {
	markers := Markers([]covid.Country{
		{Country: "Chile", Cases: 1500000, CountryInfo: covid.Info{Lat: ptr(-30), Long: ptr(-71)}},
		{Country: "Nowhere", Cases: 10},
		{Country: "Half", CountryInfo: covid.Info{Lat: ptr(1)}},
	})
	require.Len(t, markers, 1)
	assert.Equal(t, "Chile", markers[0].Country)
	assert.Equal(t, "#FF0000", markers[0].Color)
	assert.Equal(t, "1,500,000", markers[0].Cases)
	assert.Equal(t, -30.0, markers[0].Lat)
}

func TestTop(t *testing.T) {
	var countries []covid.Country
	for i := int64(1); i <= 12; i++ {
		countries = append(countries, covid.Country{Country: string(rune('A' + i)), Cases: i * 100})
	}

	top := Top(countries, DefaultTopN)
	require.Len(t, top, 10)
	assert.Equal(t, int64(1200), top[0].Cases)
	assert.Equal(t, int64(300), top[9].Cases)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Cases, top[i].Cases)
	}

	// the input is not reordered
	assert.Equal(t, int64(100), countries[0].Cases)

	assert.Len(t, Top(countries[:3], 10), 3)
	assert.Empty(t, TopTable(nil, 10).Rows)
}

func TestGlobalPanel(t *testing.T) {
	p := GlobalPanel(covid.Global{Cases: 1000, Deaths: 25, Recovered: 900, Active: 75})
	assert.Equal(t, render.Stat{Label: "Total Cases", Value: "1,000"}, p.Stats[0])
	assert.Equal(t, "2.50%", p.Stats[4].Value)
	assert.Equal(t, "90.00%", p.Stats[5].Value)
	assert.Equal(t, "7.50%", p.Stats[6].Value)
	assert.Contains(t, p.Updated, "Last updated: ")

	empty := GlobalPanel(covid.Global{})
	assert.Equal(t, "N/A", empty.Stats[4].Value)
}

type fakeFetcher struct {
	mu        sync.Mutex
	globalErr error
	histErr   error
	days      []int
}

func (f *fakeFetcher) Global(ctx context.Context) (covid.Global, error) {
	if f.globalErr != nil {
		return covid.Global{}, f.globalErr
	}
	return covid.Global{Cases: 100, Deaths: 1}, nil
}

func (f *fakeFetcher) Countries(ctx context.Context) ([]covid.Country, error) {
	return []covid.Country{
		{Country: "Peru", Cases: 50, CountryInfo: covid.Info{Lat: ptr(-10), Long: ptr(-76)}},
		{Country: "USA", Cases: 500},
	}, nil
}

func (f *fakeFetcher) Historical(ctx context.Context, name string, days int) (covid.Historical, error) {
	f.mu.Lock()
	f.days = append(f.days, days)
	f.mu.Unlock()
	if f.histErr != nil {
		return covid.Historical{}, f.histErr
	}
	series := covid.Series{{Date: "3/1/21", Value: 1}, {Date: "3/2/21", Value: 2}}
	return covid.Historical{Timeline: covid.Timeline{Cases: series, Deaths: series, Recovered: series}}, nil
}

func TestOverview_Load(t *testing.T) {
	f := &fakeFetcher{}
	rec := render.NewRecorder()
	o := New(f, rec, logger.Nop())

	require.NoError(t, o.Load(context.Background()))
	require.NotNil(t, rec.Global)
	assert.Len(t, rec.Markers, 1)
	assert.Equal(t, "USA", rec.Tables[render.TableTopCountries].Rows[0][0])
	assert.Equal(t, []string{"3/1", "3/2"}, rec.Charts[render.ChartGlobalTrends].Labels)
	assert.Equal(t, []int{DefaultDays}, f.days)
	assert.Len(t, o.Countries(), 2)
}

func TestOverview_SetDays(t *testing.T) {
	f := &fakeFetcher{}
	rec := render.NewRecorder()
	o := New(f, rec, logger.Nop())

	require.NoError(t, o.SetDays(context.Background(), 90))
	assert.Equal(t, 90, o.Days())
	assert.Equal(t, []int{90}, f.days)

	f.histErr = errors.New("HTTP 500")
	require.Error(t, o.SetDays(context.Background(), 7))
	_, kept := rec.Charts[render.ChartGlobalTrends]
	assert.True(t, kept, "previous chart stays")
}

func TestOverview_GlobalFailure(t *testing.T) {
	f := &fakeFetcher{globalErr: errors.New("HTTP 503")}
	rec := render.NewRecorder()
	o := New(f, rec, logger.Nop())

	err := o.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, f.globalErr)
	assert.Nil(t, rec.Global)
	assert.Equal(t, MsgGlobalFailed, rec.Error)
	assert.Len(t, rec.Markers, 1, "countries still render")
}

func TestOverview_WithDays(t *testing.T) {
	f := &fakeFetcher{}
	o := New(f, render.NewRecorder(), logger.Nop()).WithDays(7).WithTopN(1)

	require.NoError(t, o.Load(context.Background()))
	assert.Equal(t, []int{7}, f.days)

	o = New(f, render.NewRecorder(), logger.Nop()).WithDays(-1)
	assert.Equal(t, DefaultDays, o.Days())
}
