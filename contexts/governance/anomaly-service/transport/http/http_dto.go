package httptransport

import "time"

type EvaluateEventRequest struct {
	UserID     string    `json:"user_id"`
	AppID      string    `json:"app_id,omitempty"`
	EventType  string    `json:"event_type"`
	IPAddress  string    `json:"ip_address,omitempty"`
	Location   string    `json:"location,omitempty"`
	OccurredAt time.Time `json:"occurred_at,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type BaselineResponse struct {
	UserID         string   `json:"user_id"`
	StartHour      int      `json:"start_hour"`
	EndHour        int      `json:"end_hour"`
	TypicalDays    []string `json:"typical_days"`
	KnownLocations []string `json:"known_locations,omitempty"`
	AdminAppIDs    []string `json:"admin_app_ids,omitempty"`
	SampleCount    int      `json:"sample_count"`
}

type DetectionResponse struct {
	DetectionID     string           `json:"detection_id"`
	UserID          string           `json:"user_id"`
	AnomalyType     string           `json:"anomaly_type"`
	Severity        string           `json:"severity"`
	Confidence      int              `json:"confidence"`
	EventData       EventSnapshot    `json:"event_data"`
	BaselineData    BaselineSnapshot `json:"baseline_data"`
	Status          string           `json:"status"`
	DetectedAt      time.Time        `json:"detected_at"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
	ResolvedBy      string           `json:"resolved_by,omitempty"`
	ResolutionNotes string           `json:"resolution_notes,omitempty"`
}

type EventSnapshot struct {
	AppID      string    `json:"app_id,omitempty"`
	EventType  string    `json:"event_type"`
	IPAddress  string    `json:"ip_address,omitempty"`
	Location   string    `json:"location,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type BaselineSnapshot struct {
	StartHour      int      `json:"start_hour"`
	EndHour        int      `json:"end_hour"`
	TypicalDays    []string `json:"typical_days"`
	KnownLocations []string `json:"known_locations,omitempty"`
	AdminAppIDs    []string `json:"admin_app_ids,omitempty"`
	SampleCount    int      `json:"sample_count"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
