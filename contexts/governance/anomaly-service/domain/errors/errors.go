package errors

import "errors"

var (
	ErrDetectionNotFound   = errors.New("anomaly detection not found")
	ErrInvalidEventInput   = errors.New("invalid activity event input")
	ErrInvalidStatusChange = errors.New("invalid detection status change")
	ErrTenantRequired      = errors.New("tenant id is required")
)
