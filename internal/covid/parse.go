package covid

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
)

// ErrInvalidPayload is returned when a payload is not JSON of the expected shape
var ErrInvalidPayload = errors.New("invalid payload")

// Optional fields are resolved here, once, at the ingestion boundary:
// a missing flag becomes "", missing coordinates become nil, missing counts 0.

// ParseCountries decodes a JSON array of country records
func ParseCountries(data []byte) ([]Country, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: countries is not valid JSON", ErrInvalidPayload)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: countries is not an array", ErrInvalidPayload)
	}

	countries := make([]Country, 0, len(root.Array()))
	root.ForEach(func(_, v gjson.Result) bool {
		if c := countryFrom(v); c.Country != "" {
			countries = append(countries, c)
		}
		return true
	})
	return countries, nil
}

// ParseCountry decodes a single country record
func ParseCountry(data []byte) (Country, error) {
	if !gjson.ValidBytes(data) {
		return Country{}, fmt.Errorf("%w: country is not valid JSON", ErrInvalidPayload)
	}
	c := countryFrom(gjson.ParseBytes(data))
	if c.Country == "" {
		return Country{}, fmt.Errorf("%w: country name missing", ErrInvalidPayload)
	}
	return c, nil
}

func countryFrom(v gjson.Result) Country {
	info := v.Get("countryInfo")
	return Country{
		Country:   v.Get("country").String(),
		Continent: v.Get("continent").String(),
		CountryInfo: Info{
			ISO2: info.Get("iso2").String(),
			ISO3: info.Get("iso3").String(),
			Flag: info.Get("flag").String(),
			Lat:  optionalFloat(info.Get("lat")),
			Long: optionalFloat(info.Get("long")),
		},
		Cases:               v.Get("cases").Int(),
		Deaths:              v.Get("deaths").Int(),
		Recovered:           v.Get("recovered").Int(),
		Active:              v.Get("active").Int(),
		Critical:            v.Get("critical").Int(),
		Tests:               v.Get("tests").Int(),
		Population:          v.Get("population").Int(),
		CasesPerOneMillion:  v.Get("casesPerOneMillion").Float(),
		DeathsPerOneMillion: v.Get("deathsPerOneMillion").Float(),
		TestsPerOneMillion:  v.Get("testsPerOneMillion").Float(),
		TodayCases:          v.Get("todayCases").Int(),
		TodayDeaths:         v.Get("todayDeaths").Int(),
		TodayRecovered:      v.Get("todayRecovered").Int(),
		Updated:             v.Get("updated").Int(),
	}
}

func optionalFloat(v gjson.Result) *float64 {
	if v.Type != gjson.Number {
		return nil
	}
	f := v.Float()
	return &f
}

// ParseGlobal decodes /all and fills the derived rates
func ParseGlobal(data []byte) (Global, error) {
	if !gjson.ValidBytes(data) {
		return Global{}, fmt.Errorf("%w: global is not valid JSON", ErrInvalidPayload)
	}
	v := gjson.ParseBytes(data)
	if !v.IsObject() || !v.Get("cases").Exists() {
		return Global{}, fmt.Errorf("%w: global totals missing", ErrInvalidPayload)
	}

	g := Global{
		Cases:             v.Get("cases").Int(),
		Deaths:            v.Get("deaths").Int(),
		Recovered:         v.Get("recovered").Int(),
		Active:            v.Get("active").Int(),
		Critical:          v.Get("critical").Int(),
		Tests:             v.Get("tests").Int(),
		Population:        v.Get("population").Int(),
		TodayCases:        v.Get("todayCases").Int(),
		TodayDeaths:       v.Get("todayDeaths").Int(),
		AffectedCountries: int(v.Get("affectedCountries").Int()),
		Updated:           v.Get("updated").Int(),
	}
	return g.WithRates(), nil
}

// ParseHistorical decodes /historical/{country}.
// /historical/all has no "timeline" wrapper; both shapes are accepted.
func ParseHistorical(data []byte) (Historical, error) {
	if !gjson.ValidBytes(data) {
		return Historical{}, fmt.Errorf("%w: historical is not valid JSON", ErrInvalidPayload)
	}
	v := gjson.ParseBytes(data)
	if !v.IsObject() {
		return Historical{}, fmt.Errorf("%w: historical is not an object", ErrInvalidPayload)
	}

	h := Historical{Country: v.Get("country").String()}
	v.Get("province").ForEach(func(_, p gjson.Result) bool {
		h.Province = append(h.Province, p.String())
		return true
	})

	tl := v.Get("timeline")
	if !tl.Exists() {
		tl = v
	}
	if !tl.Get("cases").IsObject() {
		return Historical{}, fmt.Errorf("%w: timeline cases missing", ErrInvalidPayload)
	}

	h.Timeline = Timeline{
		Cases:     seriesFrom(tl.Get("cases")),
		Deaths:    seriesFrom(tl.Get("deaths")),
		Recovered: seriesFrom(tl.Get("recovered")),
	}
	return h, nil
}

// seriesFrom reads a {"date": n} object in key order
func seriesFrom(v gjson.Result) Series {
	if !v.IsObject() {
		return nil
	}
	var s Series
	v.ForEach(func(k, n gjson.Result) bool {
		s = append(s, Point{Date: k.String(), Value: n.Int()})
		return true
	})
	return s
}

// ParseVaccineCoverage decodes /vaccine/coverage/countries/{c}
func ParseVaccineCoverage(data []byte) (VaccineCoverage, error) {
	if !gjson.ValidBytes(data) {
		return VaccineCoverage{}, fmt.Errorf("%w: vaccine is not valid JSON", ErrInvalidPayload)
	}
	v := gjson.ParseBytes(data)
	if !v.IsObject() {
		return VaccineCoverage{}, fmt.Errorf("%w: vaccine is not an object", ErrInvalidPayload)
	}
	return VaccineCoverage{
		Country:  v.Get("country").String(),
		Timeline: seriesFrom(v.Get("timeline")),
	}, nil
}

// ParseVaccination decodes a vaccine payload in any of the shapes seen in
// the wild and combines it with country metadata:
//
//	{"timeline": {"1/1/21": n, ...}}                            cumulative totals
//	{"timeline": {"total": n, "people": n, "completed": n}}     summary
//	{"timeline": {"dates": {"1/1/21": {"total": n, ...}}}}      per-date summary
//	{"totalVaccinations": n, "peopleVaccinated": n, ...}        flat
func ParseVaccination(data []byte, country Country) (Vaccination, error) {
	if !gjson.ValidBytes(data) {
		return Vaccination{}, fmt.Errorf("%w: vaccine is not valid JSON", ErrInvalidPayload)
	}
	v := gjson.ParseBytes(data)
	if !v.IsObject() {
		return Vaccination{}, fmt.Errorf("%w: vaccine is not an object", ErrInvalidPayload)
	}

	out := Vaccination{
		Country:           country.Country,
		Population:        country.Population,
		Flag:              country.CountryInfo.Flag,
		TotalVaccinations: v.Get("totalVaccinations").Int(),
		PeopleVaccinated:  v.Get("peopleVaccinated").Int(),
		FullyVaccinated:   v.Get("fullyVaccinated").Int(),
	}
	if out.Country == "" {
		out.Country = v.Get("country").String()
	}

	tl := v.Get("timeline")
	switch {
	case tl.Get("dates").IsObject():
		out.Timeline = datedSummary(tl.Get("dates"))
		out.TotalVaccinations = firstNonZero(out.TotalVaccinations, out.Timeline.Last())
	case tl.Get("total").Exists():
		out.TotalVaccinations = firstNonZero(tl.Get("total").Int(), out.TotalVaccinations)
		out.PeopleVaccinated = firstNonZero(tl.Get("people").Int(), out.PeopleVaccinated)
		out.FullyVaccinated = firstNonZero(tl.Get("completed").Int(), out.FullyVaccinated)
	case tl.IsObject():
		out.Timeline = seriesFrom(tl)
		out.TotalVaccinations = firstNonZero(out.Timeline.Last(), out.TotalVaccinations)
	}

	return out, nil
}

// datedSummary reads {"date": {"total": n}} sorted by calendar date
func datedSummary(v gjson.Result) Series {
	type dated struct {
		p   Point
		key int64
	}
	var rows []dated
	v.ForEach(func(k, d gjson.Result) bool {
		row := dated{p: Point{Date: k.String(), Value: d.Get("total").Int()}}
		if t, err := ParseDate(k.String()); err == nil {
			row.key = t.Unix()
		}
		rows = append(rows, row)
		return true
	})

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].key < rows[j].key })

	s := make(Series, len(rows))
	for i, r := range rows {
		s[i] = r.p
	}
	return s
}

func firstNonZero(vals ...int64) int64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
