package entities

import "time"

type ViolationStatus string

const (
	ViolationStatusOpen          ViolationStatus = "open"
	ViolationStatusInvestigating ViolationStatus = "investigating"
	ViolationStatusRemediated    ViolationStatus = "remediated"
	ViolationStatusAccepted      ViolationStatus = "accepted"
)

// Violation records one user holding both sides of an active rule.
// App ids and names are snapshots taken at detection time so the record stays
// meaningful after rules or applications change. At most one open violation
// exists per (tenant, user, rule).
type Violation struct {
	ViolationID     string
	TenantID        string
	UserID          string
	RuleID          string
	RuleName        string
	AppID1          string
	AppID2          string
	AppName1        string
	AppName2        string
	Severity        Severity
	Status          ViolationStatus
	DetectedAt      time.Time
	ResolvedAt      *time.Time
	ResolvedBy      string
	ResolutionNotes string
}

// Covers reports whether the application is one of the violation's two sides.
func (v Violation) Covers(appID string) bool {
	return v.AppID1 == appID || v.AppID2 == appID
}
