package errors

import "errors"

var (
	ErrRuleNotFound              = errors.New("sod rule not found")
	ErrViolationNotFound         = errors.New("sod violation not found")
	ErrInvalidRuleInput          = errors.New("invalid sod rule input")
	ErrSameAppPair               = errors.New("rule applications must differ")
	ErrInvalidSeverity           = errors.New("invalid severity")
	ErrViolationNotOpen          = errors.New("violation is not open")
	ErrRevokeAppNotInViolation   = errors.New("revoke app is not part of the violation")
	ErrDuplicateOpenViolation    = errors.New("open violation already exists for user and rule")
	ErrTenantRequired            = errors.New("tenant id is required")
	ErrEntitlementLookupFailed   = errors.New("entitlement lookup failed")
	ErrEntitlementRevokeRejected = errors.New("entitlement revoke rejected")
)
