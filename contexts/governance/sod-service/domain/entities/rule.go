package entities

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ValidSeverity reports whether the value is a known severity tier.
func ValidSeverity(value Severity) bool {
	switch value {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Rule defines a symmetric conflict over an unordered application pair.
// AppID1 and AppID2 must differ; a user holding both sides violates the rule
// unless listed in ExemptUserIDs.
type Rule struct {
	RuleID              string
	TenantID            string
	Name                string
	Severity            Severity
	AppID1              string
	AppID2              string
	Rationale           string
	ComplianceFramework string
	ExemptUserIDs       []string
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Matches reports whether the unordered pair {a, b} equals the rule pair.
func (r Rule) Matches(a, b string) bool {
	return (r.AppID1 == a && r.AppID2 == b) || (r.AppID1 == b && r.AppID2 == a)
}

// Exempts reports whether the user is excluded from this rule.
func (r Rule) Exempts(userID string) bool {
	for _, exempt := range r.ExemptUserIDs {
		if exempt == userID {
			return true
		}
	}
	return false
}

// References reports whether the rule covers the application on either side.
func (r Rule) References(appID string) bool {
	return r.AppID1 == appID || r.AppID2 == appID
}

// OtherApp returns the opposite side of the pair, or empty when appID is not
// part of the rule.
func (r Rule) OtherApp(appID string) string {
	switch appID {
	case r.AppID1:
		return r.AppID2
	case r.AppID2:
		return r.AppID1
	default:
		return ""
	}
}
