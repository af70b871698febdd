package errors

import "errors"

var (
	ErrApplicationNotFound    = errors.New("application not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrEntitlementNotFound    = errors.New("entitlement not found")
	ErrEntitlementExists      = errors.New("active entitlement already exists for user and application")
	ErrInvalidAccessType      = errors.New("invalid access type")
	ErrInvalidApplicationData = errors.New("invalid application input")
	ErrInvalidUserData        = errors.New("invalid user input")
	ErrTenantRequired         = errors.New("tenant id is required")
)
