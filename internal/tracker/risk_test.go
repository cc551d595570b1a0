package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/covidwatch/internal/covid"
)

func TestAssess(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	tests := []struct {
		name      string
		country   covid.Country
		wantScore float64
		wantLevel string
	}{
		{
			name:      "no cases",
			country:   covid.Country{Country: "A", Population: 1000},
			wantScore: 0, wantLevel: covid.RiskVeryLow,
		},
		{
			name:      "zero population",
			country:   covid.Country{Country: "B", Active: 10, Cases: 100, Deaths: 6},
			wantScore: 5, wantLevel: covid.RiskModerate,
		},
		{
			// 600 per million -> 2, cfr 1.5% -> 2
			name:      "low",
			country:   covid.Country{Country: "C", Active: 600, Population: 1_000_000, Cases: 1000, Deaths: 15},
			wantScore: 4, wantLevel: covid.RiskModerate,
		},
		{
			// exactly on a threshold does not score the step
			name:      "boundaries are exclusive",
			country:   covid.Country{Country: "D", Active: 100, Population: 1_000_000, Cases: 200, Deaths: 1},
			wantScore: 0, wantLevel: covid.RiskVeryLow,
		},
		{
			// 5001 per million -> 4, cfr 3.5% -> 4
			name:      "high",
			country:   covid.Country{Country: "E", Active: 5001, Population: 1_000_000, Cases: 1000, Deaths: 35},
			wantScore: 8, wantLevel: covid.RiskVeryHigh,
		},
		{
			// 2000 per million -> 3, cfr 2.5% -> 3
			name:      "moderate high",
			country:   covid.Country{Country: "F", Active: 2000, Population: 1_000_000, Cases: 1000, Deaths: 25},
			wantScore: 6, wantLevel: covid.RiskHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(tt.country, now)
			assert.Equal(t, tt.wantScore, got.RiskScore)
			assert.Equal(t, tt.wantLevel, got.RiskLevel)
			assert.Equal(t, tt.country.Country, got.Country)
			assert.Equal(t, now.UnixMilli(), got.Timestamp)
			assert.GreaterOrEqual(t, got.RiskScore, 0.0)
			assert.LessOrEqual(t, got.RiskScore, 10.0)
		})
	}
}

func TestAssess_Rates(t *testing.T) {
	got := Assess(covid.Country{Active: 50, Population: 10_000, Cases: 400, Deaths: 4}, time.Now())
	assert.InDelta(t, 5000.0, got.ActiveCasesPerMillion, 1e-9)
	assert.InDelta(t, 1.0, got.CaseFatalityRate, 1e-9)
}
