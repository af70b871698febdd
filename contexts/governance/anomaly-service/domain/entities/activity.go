package entities

import "time"

// Well-known activity event types. The log accepts arbitrary types; these
// are the ones the rule catalog keys on.
const (
	EventTypeLogin       = "login"
	EventTypeFailedLogin = "failed_login"
	EventTypeDownload    = "download"
	EventTypeAdminAccess = "admin_access"
)

// ActivityEvent is one observed user action.
type ActivityEvent struct {
	EventID    string
	TenantID   string
	UserID     string
	AppID      string
	EventType  string
	IPAddress  string
	Location   string
	OccurredAt time.Time
}
