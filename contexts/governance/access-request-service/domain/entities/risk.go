package entities

type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Elevated reports whether the level falls into the extended review SLA
// window reserved for high and critical requests.
func (l RiskLevel) Elevated() bool {
	return l == RiskLevelHigh || l == RiskLevelCritical
}
