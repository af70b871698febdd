package httptransport

import "time"

type SubmitRequestRequest struct {
	AppID         string `json:"app_id"`
	AccessType    string `json:"access_type"`
	Justification string `json:"justification"`
	DurationType  string `json:"duration_type"`
	DurationHours int    `json:"duration_hours,omitempty"`
}

type ReviewRequestRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes,omitempty"`
}

type ConflictSnapshotResponse struct {
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	Severity    string `json:"severity"`
	HeldAppID   string `json:"held_app_id"`
	HeldAppName string `json:"held_app_name"`
	Rationale   string `json:"rationale"`
}

type AccessRequestResponse struct {
	RequestID          string                     `json:"request_id"`
	RequesterID        string                     `json:"requester_id"`
	AppID              string                     `json:"app_id"`
	AppName            string                     `json:"app_name"`
	AccessType         string                     `json:"access_type"`
	Justification      string                     `json:"justification"`
	DurationType       string                     `json:"duration_type"`
	DurationHours      int                        `json:"duration_hours,omitempty"`
	Status             string                     `json:"status"`
	RiskScore          int                        `json:"risk_score"`
	RiskLevel          string                     `json:"risk_level"`
	RiskFactors        []string                   `json:"risk_factors,omitempty"`
	SodConflicts       []ConflictSnapshotResponse `json:"sod_conflicts,omitempty"`
	ApproverID         string                     `json:"approver_id,omitempty"`
	DecidedBy          string                     `json:"decided_by,omitempty"`
	DecisionNotes      string                     `json:"decision_notes,omitempty"`
	SubmittedAt        time.Time                  `json:"submitted_at"`
	DecidedAt          *time.Time                 `json:"decided_at,omitempty"`
	SLADueAt           time.Time                  `json:"sla_due_at"`
	IsOverdue          bool                       `json:"is_overdue"`
	ProvisioningStatus string                     `json:"provisioning_status,omitempty"`
	ProvisioningError  string                     `json:"provisioning_error,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
