package errors

import "errors"

var (
	ErrRequestNotFound      = errors.New("access request not found")
	ErrRequestNotPending    = errors.New("access request is not pending")
	ErrNotRequester         = errors.New("only the requester may cancel")
	ErrInvalidDecision      = errors.New("decision must be approved or denied")
	ErrInvalidAccessType    = errors.New("invalid access type")
	ErrInvalidDuration      = errors.New("invalid request duration")
	ErrJustificationMissing = errors.New("justification is required")
	ErrTenantRequired       = errors.New("tenant id is required")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrUserNotFound         = errors.New("user not found")
)
