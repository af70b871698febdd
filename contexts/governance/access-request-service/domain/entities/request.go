package entities

import "time"

type RequestStatus string

const (
	RequestStatusPending     RequestStatus = "pending"
	RequestStatusApproved    RequestStatus = "approved"
	RequestStatusDenied      RequestStatus = "denied"
	RequestStatusCancelled   RequestStatus = "cancelled"
	RequestStatusProvisioned RequestStatus = "provisioned"
)

type DurationType string

const (
	DurationPermanent DurationType = "permanent"
	DurationTemporary DurationType = "temporary"
)

type ProvisioningStatus string

const (
	ProvisioningNone      ProvisioningStatus = ""
	ProvisioningCompleted ProvisioningStatus = "completed"
	ProvisioningFailed    ProvisioningStatus = "failed"
)

// ConflictSnapshot is a Segregation-of-Duties finding captured at submission.
type ConflictSnapshot struct {
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	Severity    string `json:"severity"`
	HeldAppID   string `json:"held_app_id"`
	HeldAppName string `json:"held_app_name"`
	Rationale   string `json:"rationale"`
}

// AccessRequest is one user's ask for application access.
// ApproverID stays empty when the requester has no manager; such requests
// are never routed (known product gap, kept deliberately).
type AccessRequest struct {
	RequestID          string
	TenantID           string
	RequesterID        string
	AppID              string
	AppName            string
	AccessType         string
	Justification      string
	DurationType       DurationType
	DurationHours      int
	Status             RequestStatus
	RiskScore          int
	RiskLevel          RiskLevel
	RiskFactors        []string
	SodConflicts       []ConflictSnapshot
	ApproverID         string
	DecidedBy          string
	DecisionNotes      string
	SubmittedAt        time.Time
	DecidedAt          *time.Time
	SLADueAt           time.Time
	IsOverdue          bool
	ProvisioningStatus ProvisioningStatus
	ProvisioningError  string
}

// Terminal reports whether no further review transitions are allowed.
func (r AccessRequest) Terminal() bool {
	return r.Status != RequestStatusPending
}
