package entities

import "time"

type AnomalyType string

const (
	AnomalyAfterHoursAccess    AnomalyType = "after_hours_access"
	AnomalyWeekendAccess       AnomalyType = "weekend_access"
	AnomalyGeographic          AnomalyType = "geographic_anomaly"
	AnomalyBulkDownload        AnomalyType = "bulk_download"
	AnomalyRapidAppSwitching   AnomalyType = "rapid_app_switching"
	AnomalyPrivilegeEscalation AnomalyType = "privilege_escalation"
	AnomalyFailedLoginSpike    AnomalyType = "failed_login_spike"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type DetectionStatus string

const (
	DetectionStatusOpen          DetectionStatus = "open"
	DetectionStatusInvestigating DetectionStatus = "investigating"
	DetectionStatusResolved      DetectionStatus = "resolved"
	DetectionStatusFalsePositive DetectionStatus = "false_positive"
)

// ValidDetectionStatus reports whether value is a known workflow status.
func ValidDetectionStatus(value DetectionStatus) bool {
	switch value {
	case DetectionStatusOpen, DetectionStatusInvestigating, DetectionStatusResolved, DetectionStatusFalsePositive:
		return true
	default:
		return false
	}
}

// EventSnapshot freezes the triggering event onto the detection.
type EventSnapshot struct {
	AppID      string    `json:"app_id,omitempty"`
	EventType  string    `json:"event_type"`
	IPAddress  string    `json:"ip_address,omitempty"`
	Location   string    `json:"location,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BaselineSnapshot freezes the baseline the rule fired against.
type BaselineSnapshot struct {
	StartHour      int      `json:"start_hour"`
	EndHour        int      `json:"end_hour"`
	TypicalDays    []string `json:"typical_days"`
	KnownLocations []string `json:"known_locations,omitempty"`
	AdminAppIDs    []string `json:"admin_app_ids,omitempty"`
	SampleCount    int      `json:"sample_count"`
}

// Detection is one persisted anomaly finding.
type Detection struct {
	DetectionID     string
	TenantID        string
	UserID          string
	AnomalyType     AnomalyType
	Severity        Severity
	Confidence      int
	EventData       EventSnapshot
	BaselineData    BaselineSnapshot
	Status          DetectionStatus
	DetectedAt      time.Time
	ResolvedAt      *time.Time
	ResolvedBy      string
	ResolutionNotes string
}

// Open reports whether the detection still counts toward the dedup window.
func (d Detection) Open() bool {
	return d.Status == DetectionStatusOpen
}
