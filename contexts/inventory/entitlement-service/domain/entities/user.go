package entities

import "time"

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusOffboard  UserStatus = "offboarded"
)

// User is a workforce identity tracked by the inventory.
// ManagerID is empty when the user has no assigned manager.
type User struct {
	UserID      string
	TenantID    string
	Email       string
	DisplayName string
	Department  string
	ManagerID   string
	Status      UserStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
