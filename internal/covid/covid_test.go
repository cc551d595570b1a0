package covid

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countriesFixture = `[
  {"country":"USA","countryInfo":{"_id":840,"iso2":"US","iso3":"USA","lat":38,"long":-97,"flag":"https://disease.sh/assets/img/flags/us.png"},
   "cases":1000000,"todayCases":10,"deaths":20000,"todayDeaths":1,"recovered":900000,"active":80000,"critical":5,
   "casesPerOneMillion":3000.5,"deathsPerOneMillion":60,"tests":5000000,"testsPerOneMillion":15000,"population":330000000,
   "continent":"North America","updated":1700000000000},
  {"country":"Atlantis","countryInfo":{"_id":null,"iso2":null,"iso3":null,"lat":null,"long":null},
   "cases":0,"deaths":0,"recovered":0,"active":0,"population":0},
  {"countryInfo":{}}
]`

func TestParseCountries(t *testing.T) {
	countries, err := ParseCountries([]byte(countriesFixture))
	require.NoError(t, err)
	require.Len(t, countries, 2, "records without a name are dropped")

	usa := countries[0]
	assert.Equal(t, "USA", usa.Country)
	assert.Equal(t, "US", usa.CountryInfo.ISO2)
	assert.Equal(t, "https://disease.sh/assets/img/flags/us.png", usa.CountryInfo.Flag)
	require.True(t, usa.HasCoordinates())
	assert.Equal(t, 38.0, *usa.CountryInfo.Lat)
	assert.Equal(t, int64(1000000), usa.Cases)
	assert.Equal(t, 3000.5, usa.CasesPerOneMillion)
	assert.Equal(t, int64(1700000000000), usa.Updated)

	atlantis := countries[1]
	assert.Equal(t, "", atlantis.CountryInfo.Flag)
	assert.False(t, atlantis.HasCoordinates())
	assert.Equal(t, int64(0), atlantis.Tests)
}

func TestParseCountries_Invalid(t *testing.T) {
	_, err := ParseCountries([]byte(`{"country":"USA"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseCountries([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestParseCountry(t *testing.T) {
	c, err := ParseCountry([]byte(`{"country":"India","cases":10,"countryInfo":{"flag":"f.png"}}`))
	require.NoError(t, err)
	assert.Equal(t, "India", c.Country)
	assert.Equal(t, "f.png", c.CountryInfo.Flag)

	_, err = ParseCountry([]byte(`{"error":"Country not found"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestCountryMatches(t *testing.T) {
	c := Country{Country: "South Korea"}
	assert.True(t, c.Matches("south korea"))
	assert.True(t, c.Matches(" SOUTH KOREA "))
	assert.False(t, c.Matches("korea"))
}

func TestCountryRates(t *testing.T) {
	c := Country{Cases: 200, Deaths: 4, Recovered: 150, Active: 46}
	assert.InDelta(t, 75.0, c.RecoveryRate(), 1e-9)
	assert.InDelta(t, 23.0, c.ActivePercent(), 1e-9)
	assert.InDelta(t, 2.0, c.FatalityRate(), 1e-9)

	var empty Country
	assert.Equal(t, 0.0, empty.RecoveryRate())
}

func TestParseGlobal(t *testing.T) {
	g, err := ParseGlobal([]byte(`{"updated":1,"cases":1000,"deaths":20,"recovered":900,"active":80,"affectedCountries":231}`))
	require.NoError(t, err)
	assert.Equal(t, 231, g.AffectedCountries)
	assert.InDelta(t, 2.0, g.FatalityRate, 1e-9)
	assert.InDelta(t, 90.0, g.RecoveryRate, 1e-9)
	assert.InDelta(t, 8.0, g.ActivePercent, 1e-9)

	zero := Global{}.WithRates()
	assert.Equal(t, 0.0, zero.FatalityRate)

	_, err = ParseGlobal([]byte(`[]`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestParseHistorical(t *testing.T) {
	wrapped := `{"country":"USA","province":["mainland"],"timeline":{
		"cases":{"1/30/21":100,"1/31/21":150,"2/1/21":140,"2/2/21":200},
		"deaths":{"1/30/21":1,"1/31/21":2,"2/1/21":2,"2/2/21":3},
		"recovered":{"1/30/21":0,"1/31/21":0,"2/1/21":0,"2/2/21":0}}}`

	h, err := ParseHistorical([]byte(wrapped))
	require.NoError(t, err)
	assert.Equal(t, "USA", h.Country)
	assert.Equal(t, []string{"mainland"}, h.Province)
	assert.Equal(t, 4, h.Timeline.Len())

	// key order is preserved, not sorted lexically
	assert.Equal(t, []string{"1/30", "1/31", "2/1", "2/2"}, h.Timeline.Cases.Labels())
	assert.Equal(t, []int64{0, 50, 0, 60}, h.Timeline.DailyNew("cases"))
	assert.Equal(t, []int64{0, 1, 0, 1}, h.Timeline.DailyNew("deaths"))
	assert.Nil(t, h.Timeline.DailyNew("unknown"))

	unwrapped := `{"cases":{"1/1/21":5},"deaths":{"1/1/21":1},"recovered":{"1/1/21":2}}`
	all, err := ParseHistorical([]byte(unwrapped))
	require.NoError(t, err)
	assert.Equal(t, "", all.Country)
	assert.Equal(t, Series{{Date: "1/1/21", Value: 5}}, all.Timeline.Cases)

	_, err = ParseHistorical([]byte(`{"message":"Country not found or doesn't have any historical data"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestSeriesJSONKeepsOrder(t *testing.T) {
	s := Series{{"12/31/20", 3}, {"1/1/21", 5}, {"1/2/21", 8}}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"12/31/20":3,"1/1/21":5,"1/2/21":8}`, string(data))

	var back Series
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(s, back); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}

	var null Series
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	assert.Nil(t, null)
}

func TestHistoricalJSON(t *testing.T) {
	h := Historical{Country: "USA", Timeline: Timeline{Cases: Series{{"1/2/21", 2}, {"1/1/21", 1}}}}

	data, err := json.Marshal(h)
	require.NoError(t, err)

	back, err := ParseHistorical(data)
	require.NoError(t, err)
	assert.Equal(t, h.Timeline.Cases, back.Timeline.Cases)
}

func TestDailyNew(t *testing.T) {
	tests := []struct {
		name string
		in   Series
		want []int64
	}{
		{"empty", nil, []int64{}},
		{"single", Series{{"1/1/21", 10}}, []int64{0}},
		{"growth", Series{{"a", 10}, {"b", 15}, {"c", 25}}, []int64{0, 5, 10}},
		{"correction clamps to zero", Series{{"a", 10}, {"b", 8}, {"c", 9}}, []int64{0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.DailyNew())
		})
	}
}

func TestShortLabel(t *testing.T) {
	assert.Equal(t, "1/22", ShortLabel("1/22/21"))
	assert.Equal(t, "12/3", ShortLabel("12/3/20"))
	assert.Equal(t, "2021-01-22", ShortLabel("2021-01-22"))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("1/22/21")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2021, 1, 22, 0, 0, 0, 0, time.UTC)), "got %v", got)

	_, err = ParseDate("xyz")
	assert.Error(t, err)
}

func TestParseVaccination(t *testing.T) {
	country := Country{Country: "India", Population: 1000, CountryInfo: Info{Flag: "in.png"}}

	tests := []struct {
		name      string
		payload   string
		total     int64
		people    int64
		completed int64
		points    int
	}{
		{
			name:    "cumulative timeline",
			payload: `{"country":"India","timeline":{"1/1/21":100,"1/2/21":250}}`,
			total:   250, points: 2,
		},
		{
			name:    "summary timeline",
			payload: `{"timeline":{"total":300,"people":200,"completed":90}}`,
			total:   300, people: 200, completed: 90,
		},
		{
			name:    "dated summary sorted by calendar date",
			payload: `{"timeline":{"dates":{"1/10/21":{"total":40},"1/9/21":{"total":30}}}}`,
			total:   40, points: 2,
		},
		{
			name:    "flat",
			payload: `{"totalVaccinations":500,"peopleVaccinated":300}`,
			total:   500, people: 300,
		},
		{
			name:    "empty",
			payload: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVaccination([]byte(tt.payload), country)
			require.NoError(t, err)
			assert.Equal(t, "India", v.Country)
			assert.Equal(t, int64(1000), v.Population)
			assert.Equal(t, "in.png", v.Flag)
			assert.Equal(t, tt.total, v.TotalVaccinations)
			assert.Equal(t, tt.people, v.PeopleVaccinated)
			assert.Equal(t, tt.completed, v.FullyVaccinated)
			assert.Len(t, v.Timeline, tt.points)
		})
	}

	v, err := ParseVaccination([]byte(`{"timeline":{"dates":{"1/10/21":{"total":40},"1/9/21":{"total":30}}}}`), country)
	require.NoError(t, err)
	assert.Equal(t, "1/9/21", v.Timeline[0].Date)

	_, err = ParseVaccination([]byte(`[1,2]`), country)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestParseVaccineCoverage(t *testing.T) {
	vc, err := ParseVaccineCoverage([]byte(`{"country":"USA","timeline":{"1/1/21":1,"1/2/21":3}}`))
	require.NoError(t, err)
	assert.Equal(t, "USA", vc.Country)
	assert.Equal(t, int64(3), vc.Timeline.Last())
}

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, RiskVeryLow},
		{1.99, RiskVeryLow},
		{2, RiskLow},
		{3.5, RiskLow},
		{4, RiskModerate},
		{6, RiskHigh},
		{7.9, RiskHigh},
		{8, RiskVeryHigh},
		{10, RiskVeryHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelFor(tt.score), "score %v", tt.score)
	}
}

func TestCompareProjection(t *testing.T) {
	c := Country{Country: "USA", Cases: 1, Deaths: 2, Recovered: 3, Active: 4, Tests: 5, Population: 6,
		CasesPerOneMillion: 7, DeathsPerOneMillion: 8, TestsPerOneMillion: 9}
	assert.Equal(t, ComparisonEntry{"USA", 1, 2, 3, 4, 7, 8, 5, 9, 6}, c.Compare())
}

func TestCSVRecord(t *testing.T) {
	lat := 38.5
	c := Country{Country: "USA", Cases: 10, CountryInfo: Info{ISO2: "US", Lat: &lat}, CasesPerOneMillion: 0.25}

	rec := c.CSVRecord()
	require.Len(t, rec, len(CSVHeader))
	assert.Equal(t, "USA", rec[0])
	assert.Equal(t, "US", rec[2])
	assert.Equal(t, "38.5", rec[5])
	assert.Equal(t, "", rec[6], "missing longitude is empty")
	assert.Equal(t, "10", rec[7])
	assert.Equal(t, "0.25", rec[17])
}
