package covid

import "strings"

// Country is one row of the upstream /countries payload
// ⭐ SSOT: 국가별 통계 레코드
type Country struct {
	Country     string `json:"country"`
	CountryInfo Info   `json:"countryInfo"`
	Continent   string `json:"continent,omitempty"`

	Cases     int64 `json:"cases"`
	Deaths    int64 `json:"deaths"`
	Recovered int64 `json:"recovered"`
	Active    int64 `json:"active"`
	Critical  int64 `json:"critical"`
	Tests     int64 `json:"tests"`

	Population int64 `json:"population"`

	CasesPerOneMillion  float64 `json:"casesPerOneMillion"`
	DeathsPerOneMillion float64 `json:"deathsPerOneMillion"`
	TestsPerOneMillion  float64 `json:"testsPerOneMillion"`

	TodayCases     int64 `json:"todayCases"`
	TodayDeaths    int64 `json:"todayDeaths"`
	TodayRecovered int64 `json:"todayRecovered"`

	Updated int64 `json:"updated"` // epoch ms
}

// Info holds identifying metadata of a country
type Info struct {
	ISO2 string   `json:"iso2,omitempty"`
	ISO3 string   `json:"iso3,omitempty"`
	Flag string   `json:"flag"`
	Lat  *float64 `json:"lat,omitempty"`
	Long *float64 `json:"long,omitempty"`
}

// HasCoordinates reports whether the country can be placed on a map
func (c *Country) HasCoordinates() bool {
	return c.CountryInfo.Lat != nil && c.CountryInfo.Long != nil
}

// Matches reports a case-insensitive exact name match
func (c *Country) Matches(name string) bool {
	return strings.EqualFold(c.Country, strings.TrimSpace(name))
}

// RecoveryRate returns recovered/cases in percent, 0 without cases
func (c *Country) RecoveryRate() float64 {
	return percentOf(c.Recovered, c.Cases)
}

// ActivePercent returns active/cases in percent, 0 without cases
func (c *Country) ActivePercent() float64 {
	return percentOf(c.Active, c.Cases)
}

// FatalityRate returns deaths/cases in percent, 0 without cases
func (c *Country) FatalityRate() float64 {
	return percentOf(c.Deaths, c.Cases)
}

// Global holds worldwide totals from /all
type Global struct {
	Cases             int64 `json:"cases"`
	Deaths            int64 `json:"deaths"`
	Recovered         int64 `json:"recovered"`
	Active            int64 `json:"active"`
	Critical          int64 `json:"critical"`
	Tests             int64 `json:"tests"`
	Population        int64 `json:"population"`
	TodayCases        int64 `json:"todayCases"`
	TodayDeaths       int64 `json:"todayDeaths"`
	AffectedCountries int   `json:"affectedCountries"`
	Updated           int64 `json:"updated"`

	// Derived
	FatalityRate  float64 `json:"fatalityRate"`
	RecoveryRate  float64 `json:"recoveryRate"`
	ActivePercent float64 `json:"activePercent"`
}

// WithRates fills the derived percentages
func (g Global) WithRates() Global {
	g.FatalityRate = percentOf(g.Deaths, g.Cases)
	g.RecoveryRate = percentOf(g.Recovered, g.Cases)
	g.ActivePercent = percentOf(g.Active, g.Cases)
	return g
}

// ComparisonEntry is the projection returned by /api/compare
type ComparisonEntry struct {
	Country             string  `json:"country"`
	Cases               int64   `json:"cases"`
	Deaths              int64   `json:"deaths"`
	Recovered           int64   `json:"recovered"`
	Active              int64   `json:"active"`
	CasesPerOneMillion  float64 `json:"casesPerOneMillion"`
	DeathsPerOneMillion float64 `json:"deathsPerOneMillion"`
	Tests               int64   `json:"tests"`
	TestsPerOneMillion  float64 `json:"testsPerOneMillion"`
	Population          int64   `json:"population"`
}

// Compare projects a country onto the comparison fields
func (c *Country) Compare() ComparisonEntry {
	return ComparisonEntry{
		Country:             c.Country,
		Cases:               c.Cases,
		Deaths:              c.Deaths,
		Recovered:           c.Recovered,
		Active:              c.Active,
		CasesPerOneMillion:  c.CasesPerOneMillion,
		DeathsPerOneMillion: c.DeathsPerOneMillion,
		Tests:               c.Tests,
		TestsPerOneMillion:  c.TestsPerOneMillion,
		Population:          c.Population,
	}
}

// RiskAssessment is the scored risk of one country
type RiskAssessment struct {
	Country               string  `json:"country"`
	RiskScore             float64 `json:"riskScore"` // 0 ~ 10
	RiskLevel             string  `json:"riskLevel"`
	ActiveCasesPerMillion float64 `json:"activeCasesPerMillion"`
	CaseFatalityRate      float64 `json:"caseFatalityRate"`
	Timestamp             int64   `json:"timestamp"` // epoch ms
}

// VaccineCoverage is the upstream /vaccine/coverage/countries/{c} payload
type VaccineCoverage struct {
	Country  string `json:"country"`
	Timeline Series `json:"timeline"`
}

// Vaccination combines country metadata with vaccine coverage
type Vaccination struct {
	Country    string `json:"country"`
	Population int64  `json:"population"`
	Flag       string `json:"flag"`

	TotalVaccinations int64 `json:"totalVaccinations"`
	PeopleVaccinated  int64 `json:"peopleVaccinated"`
	FullyVaccinated   int64 `json:"fullyVaccinated"`

	Timeline Series `json:"timeline,omitempty"`
}

func percentOf(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
