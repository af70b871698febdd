package entities

import "time"

// Application is a managed SaaS application registered for a tenant.
type Application struct {
	AppID     string
	TenantID  string
	Name      string
	Category  string
	OwnerID   string
	RiskScore int // vendor risk rating, 0-100
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateBasics checks required fields and the risk rating range.
func (a Application) ValidateBasics() bool {
	if a.Name == "" || a.TenantID == "" {
		return false
	}
	return a.RiskScore >= 0 && a.RiskScore <= 100
}
