package httptransport

import "time"

type RegisterApplicationRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	OwnerID   string `json:"owner_id"`
	RiskScore int    `json:"risk_score"`
}

type ApplicationResponse struct {
	AppID     string    `json:"app_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	OwnerID   string    `json:"owner_id"`
	RiskScore int       `json:"risk_score"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Department  string `json:"department"`
	ManagerID   string `json:"manager_id"`
}

type UserResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Department  string `json:"department"`
	ManagerID   string `json:"manager_id"`
	Status      string `json:"status"`
}

type GrantEntitlementRequest struct {
	UserID     string     `json:"user_id"`
	AppID      string     `json:"app_id"`
	AccessType string     `json:"access_type"`
	GrantedBy  string     `json:"granted_by"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type ChangeAccessRequest struct {
	AccessType string `json:"access_type"`
}

type RevokeEntitlementRequest struct {
	RevokedBy string `json:"revoked_by"`
}

type EntitlementResponse struct {
	EntitlementID string     `json:"entitlement_id"`
	UserID        string     `json:"user_id"`
	AppID         string     `json:"app_id"`
	AccessType    string     `json:"access_type"`
	Status        string     `json:"status"`
	GrantedBy     string     `json:"granted_by"`
	GrantedAt     time.Time  `json:"granted_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
