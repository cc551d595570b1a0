// Package risk classifies risk scores and drives the risk assessment view.
package risk

import (
	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/internal/dashboard/render"
)

// Level is one of the five ordinal risk levels
type Level string

const (
	VeryLow  Level = covid.RiskVeryLow
	Low      Level = covid.RiskLow
	Moderate Level = covid.RiskModerate
	High     Level = covid.RiskHigh
	VeryHigh Level = covid.RiskVeryHigh
)

// Levels lists every level, lowest first
var Levels = []Level{VeryLow, Low, Moderate, High, VeryHigh}

// Rank returns the ordinal position (0 = Very Low), -1 for an unknown level
func (l Level) Rank() int {
	for i, lv := range Levels {
		if lv == l {
			return i
		}
	}
	return -1
}

// Classify maps a 0~10 score to its level; it is monotonic non-decreasing
func Classify(score float64) Level {
	return Level(covid.RiskLevelFor(score))
}

// PointerAngle converts a score into the gauge rotation in degrees (-90 ~ 90).
// Scores outside 0~10 are clamped.
func PointerAngle(score float64) float64 {
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return -90 + (score/10)*180
}

// LevelClass returns the CSS class of a level, "" when unknown
func LevelClass(level Level) string {
	switch level {
	case VeryLow:
		return "risk-very-low"
	case Low:
		return "risk-low"
	case Moderate:
		return "risk-moderate"
	case High:
		return "risk-high"
	case VeryHigh:
		return "risk-very-high"
	default:
		return ""
	}
}

// Recommendation is one advice card
type Recommendation = render.Recommendation

var recommendations = map[Level][]Recommendation{
	VeryLow: {
		{Icon: "icon-mask", Title: "Masks Optional", Description: "Wearing masks is optional in most settings. Follow local guidelines."},
		{Icon: "icon-distance", Title: "Standard Precautions", Description: "Maintain regular hand hygiene and be mindful of symptoms."},
		{Icon: "icon-vaccine", Title: "Stay Updated", Description: "Ensure your vaccinations are up-to-date."},
	},
	Low: {
		{Icon: "icon-mask", Title: "Consider Masks", Description: "Consider wearing masks in crowded indoor settings."},
		{Icon: "icon-distance", Title: "Maintain Distance", Description: "Try to maintain distance in crowded places."},
		{Icon: "icon-hygiene", Title: "Hand Hygiene", Description: "Regular handwashing and use of sanitizers is recommended."},
	},
	Moderate: {
		{Icon: "icon-mask", Title: "Wear Masks Indoors", Description: "Wearing masks is recommended in all indoor public settings."},
		{Icon: "icon-distance", Title: "Physical Distancing", Description: "Maintain physical distancing of at least 1 meter in public."},
		{Icon: "icon-gathering", Title: "Limit Gatherings", Description: "Consider limiting large indoor gatherings."},
		{Icon: "icon-test", Title: "Testing", Description: "Get tested if you have symptoms or after exposure."},
	},
	High: {
		{Icon: "icon-mask", Title: "Mask Required", Description: "High-quality masks (N95/KN95) recommended in all public settings."},
		{Icon: "icon-distance", Title: "Strict Distancing", Description: "Maintain strict physical distancing of at least 2 meters."},
		{Icon: "icon-gathering", Title: "Avoid Gatherings", Description: "Avoid non-essential gatherings, especially indoors."},
		{Icon: "icon-test", Title: "Regular Testing", Description: "Regular testing is recommended, especially after potential exposure."},
	},
	VeryHigh: {
		{Icon: "icon-stay-home", Title: "Stay Home", Description: "Avoid all non-essential outings and work from home if possible."},
		{Icon: "icon-mask", Title: "Essential Masking", Description: "Wear high-quality masks (N95/KN95) whenever outside your home."},
		{Icon: "icon-distance", Title: "Maximum Protection", Description: "Maintain maximum distance from others and avoid indoor spaces with others."},
		{Icon: "icon-test", Title: "Testing Protocol", Description: "Follow strict testing protocols and isolate if exposed or symptomatic."},
		{Icon: "icon-medical", Title: "Medical Attention", Description: "Seek medical attention promptly if you develop symptoms."},
	},
}

// Recommendations returns a copy of the advice for a level, empty when unknown
func Recommendations(level Level) []Recommendation {
	return append([]Recommendation{}, recommendations[level]...)
}
