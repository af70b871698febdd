package httptransport

import "time"

type CreateRuleRequest struct {
	Name                string   `json:"name"`
	Severity            string   `json:"severity"`
	AppID1              string   `json:"app_id_1"`
	AppID2              string   `json:"app_id_2"`
	Rationale           string   `json:"rationale"`
	ComplianceFramework string   `json:"compliance_framework,omitempty"`
	ExemptUserIDs       []string `json:"exempt_user_ids,omitempty"`
	IsActive            bool     `json:"is_active"`
}

type UpdateRuleRequest struct {
	Name                *string   `json:"name,omitempty"`
	Severity            *string   `json:"severity,omitempty"`
	Rationale           *string   `json:"rationale,omitempty"`
	ComplianceFramework *string   `json:"compliance_framework,omitempty"`
	ExemptUserIDs       *[]string `json:"exempt_user_ids,omitempty"`
}

type ToggleRuleRequest struct {
	IsActive bool `json:"is_active"`
}

type RuleResponse struct {
	RuleID              string   `json:"rule_id"`
	Name                string   `json:"name"`
	Severity            string   `json:"severity"`
	AppID1              string   `json:"app_id_1"`
	AppID2              string   `json:"app_id_2"`
	Rationale           string   `json:"rationale"`
	ComplianceFramework string   `json:"compliance_framework,omitempty"`
	ExemptUserIDs       []string `json:"exempt_user_ids,omitempty"`
	IsActive            bool     `json:"is_active"`
}

type CheckViolationRequest struct {
	UserID string `json:"user_id"`
	AppID  string `json:"app_id"`
}

type ConflictFindingResponse struct {
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	Severity    string `json:"severity"`
	HeldAppID   string `json:"held_app_id"`
	HeldAppName string `json:"held_app_name"`
	Rationale   string `json:"rationale"`
}

type ScanRequest struct {
	RuleID  string `json:"rule_id,omitempty"`
	ActorID string `json:"actor_id"`
}

type ScanResponse struct {
	TotalUsers       int            `json:"total_users"`
	UsersScanned     int            `json:"users_scanned"`
	UsersSkipped     int            `json:"users_skipped"`
	ViolationsFound  int            `json:"violations_found"`
	CountsBySeverity map[string]int `json:"counts_by_severity"`
}

type RemediateRequest struct {
	RevokeAppID string `json:"revoke_app_id"`
	ActorID     string `json:"actor_id"`
	Notes       string `json:"notes,omitempty"`
}

type AcceptRequest struct {
	ActorID       string `json:"actor_id"`
	Justification string `json:"justification"`
}

type ViolationResponse struct {
	ViolationID     string     `json:"violation_id"`
	UserID          string     `json:"user_id"`
	RuleID          string     `json:"rule_id"`
	RuleName        string     `json:"rule_name"`
	AppName1        string     `json:"app_name_1"`
	AppName2        string     `json:"app_name_2"`
	Severity        string     `json:"severity"`
	Status          string     `json:"status"`
	DetectedAt      time.Time  `json:"detected_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
}

type ComplianceReportResponse struct {
	Framework            string         `json:"framework,omitempty"`
	TotalRules           int            `json:"total_rules"`
	ActiveRules          int            `json:"active_rules"`
	TotalViolations      int            `json:"total_violations"`
	OpenViolations       int            `json:"open_violations"`
	ViolationsBySeverity map[string]int `json:"violations_by_severity"`
	RemediatedViolations int            `json:"remediated_violations"`
	AcceptedViolations   int            `json:"accepted_violations"`
	ComplianceStatus     string         `json:"compliance_status"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
