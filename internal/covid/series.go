package covid

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Point is one date/value sample of a timeline
type Point struct {
	Date  string `json:"date"` // upstream M/D/YY
	Value int64  `json:"value"`
}

// Series is a date-ordered sequence of points.
// On the wire it is a JSON object keyed by date, in key order.
type Series []Point

// MarshalJSON encodes the series as an ordered {"date": value} object
func (s Series) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, int64](orderedmap.WithCapacity[string, int64](len(s)))
	for _, p := range s {
		om.Set(p.Date, p.Value)
	}
	return json.Marshal(om)
}

// UnmarshalJSON decodes an ordered {"date": value} object
func (s *Series) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}

	om := orderedmap.New[string, int64]()
	if err := json.Unmarshal(data, om); err != nil {
		return fmt.Errorf("decode series: %w", err)
	}

	out := make(Series, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Point{Date: pair.Key, Value: pair.Value})
	}
	*s = out
	return nil
}

// Values returns the values in order
func (s Series) Values() []int64 {
	out := make([]int64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Labels returns ShortLabel of every date in order
func (s Series) Labels() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = ShortLabel(p.Date)
	}
	return out
}

// Last returns the most recent value, 0 when empty
func (s Series) Last() int64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Value
}

// DailyNew converts a cumulative series into daily increments.
// The first element is 0 and decreases are clamped to 0.
func (s Series) DailyNew() []int64 {
	out := make([]int64, len(s))
	for i := 1; i < len(s); i++ {
		if d := s[i].Value - s[i-1].Value; d > 0 {
			out[i] = d
		}
	}
	return out
}

// Timeline holds the three cumulative series of /historical
type Timeline struct {
	Cases     Series `json:"cases"`
	Deaths    Series `json:"deaths"`
	Recovered Series `json:"recovered"`
}

// Len returns the number of samples in the cases series
func (t *Timeline) Len() int {
	return len(t.Cases)
}

// DailyNew returns the daily increments of one of the series
func (t *Timeline) DailyNew(series string) []int64 {
	switch series {
	case "cases":
		return t.Cases.DailyNew()
	case "deaths":
		return t.Deaths.DailyNew()
	case "recovered":
		return t.Recovered.DailyNew()
	}
	return nil
}

// Historical is the /historical/{country} payload
type Historical struct {
	Country  string   `json:"country,omitempty"`
	Province []string `json:"province,omitempty"`
	Timeline Timeline `json:"timeline"`
}

// ShortLabel trims the year: "1/22/21" -> "1/22"
func ShortLabel(date string) string {
	parts := strings.Split(date, "/")
	if len(parts) < 2 {
		return date
	}
	return parts[0] + "/" + parts[1]
}

// ParseDate parses an upstream timeline key such as "1/22/21"
func ParseDate(date string) (time.Time, error) {
	t, err := dateparse.ParseIn(date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return t, nil
}
