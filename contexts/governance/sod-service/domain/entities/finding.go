package entities

// ConflictFinding is one active-rule conflict for a candidate grant.
// HeldAppID is the side of the pair the user already holds.
type ConflictFinding struct {
	RuleID      string
	RuleName    string
	Severity    Severity
	HeldAppID   string
	HeldAppName string
	Rationale   string
}

// ScanResult aggregates one violation sweep.
type ScanResult struct {
	TotalUsers       int
	UsersScanned     int
	UsersSkipped     int
	ViolationsFound  int
	CountsBySeverity map[Severity]int
}

// ComplianceReport is the derived aggregation over rules and violations.
type ComplianceReport struct {
	Framework            string
	TotalRules           int
	ActiveRules          int
	TotalViolations      int
	OpenViolations       int
	ViolationsBySeverity map[Severity]int
	RemediatedViolations int
	AcceptedViolations   int
	ComplianceStatus     string
}
