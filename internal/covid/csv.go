package covid

import "strconv"

// CSVHeader is the column order of an exported country row
var CSVHeader = []string{
	"country", "continent",
	"countryInfo.iso2", "countryInfo.iso3", "countryInfo.flag", "countryInfo.lat", "countryInfo.long",
	"cases", "todayCases", "deaths", "todayDeaths", "recovered", "todayRecovered",
	"active", "critical", "tests", "population",
	"casesPerOneMillion", "deathsPerOneMillion", "testsPerOneMillion",
	"updated",
}

// CSVRecord flattens the country into one row matching CSVHeader
func (c *Country) CSVRecord() []string {
	i := strconv.FormatInt
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	opt := func(v *float64) string {
		if v == nil {
			return ""
		}
		return f(*v)
	}

	return []string{
		c.Country, c.Continent,
		c.CountryInfo.ISO2, c.CountryInfo.ISO3, c.CountryInfo.Flag, opt(c.CountryInfo.Lat), opt(c.CountryInfo.Long),
		i(c.Cases, 10), i(c.TodayCases, 10), i(c.Deaths, 10), i(c.TodayDeaths, 10), i(c.Recovered, 10), i(c.TodayRecovered, 10),
		i(c.Active, 10), i(c.Critical, 10), i(c.Tests, 10), i(c.Population, 10),
		f(c.CasesPerOneMillion), f(c.DeathsPerOneMillion), f(c.TestsPerOneMillion),
		i(c.Updated, 10),
	}
}
