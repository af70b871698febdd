package entities

import "time"

type AccessType string

const (
	AccessTypeViewer AccessType = "viewer"
	AccessTypeEditor AccessType = "editor"
	AccessTypeAdmin  AccessType = "admin"
	AccessTypeOwner  AccessType = "owner"
)

// ValidAccessType reports whether the value is one of the known access tiers.
func ValidAccessType(value AccessType) bool {
	switch value {
	case AccessTypeViewer, AccessTypeEditor, AccessTypeAdmin, AccessTypeOwner:
		return true
	default:
		return false
	}
}

// IsPrivileged reports whether the access tier carries admin-level rights.
func (t AccessType) IsPrivileged() bool {
	return t == AccessTypeAdmin || t == AccessTypeOwner
}

type EntitlementStatus string

const (
	EntitlementStatusActive  EntitlementStatus = "active"
	EntitlementStatusRevoked EntitlementStatus = "revoked"
)

// Entitlement records one user's access to one application.
// At most one active entitlement exists per (tenant, user, app).
type Entitlement struct {
	EntitlementID string
	TenantID      string
	UserID        string
	AppID         string
	AccessType    AccessType
	Status        EntitlementStatus
	GrantedBy     string
	GrantedAt     time.Time
	ExpiresAt     *time.Time
	RevokedAt     *time.Time
	RevokedBy     string
}
