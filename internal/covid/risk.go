package covid

// Risk levels, lowest to highest
const (
	RiskVeryLow  = "Very Low"
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
	RiskVeryHigh = "Very High"
)

// RiskLevels lists every level in ascending order
var RiskLevels = []string{RiskVeryLow, RiskLow, RiskModerate, RiskHigh, RiskVeryHigh}

// RiskLevelFor maps a 0~10 score onto its level
// ⭐ SSOT: 점수 → 위험 등급 임계값 (백엔드/대시보드 공용)
func RiskLevelFor(score float64) string {
	switch {
	case score >= 8:
		return RiskVeryHigh
	case score >= 6:
		return RiskHigh
	case score >= 4:
		return RiskModerate
	case score >= 2:
		return RiskLow
	default:
		return RiskVeryLow
	}
}
