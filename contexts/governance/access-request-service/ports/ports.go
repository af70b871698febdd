package ports

import (
	"context"
	"time"

	contractsv1 "castellan/contracts/gen/events/v1"
	"castellan/contexts/governance/access-request-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// RequestFilter narrows request listings.
type RequestFilter struct {
	RequesterID string
	ApproverID  string
	Status      entities.RequestStatus
}

// RequestRepository owns durable request state, tenant-scoped.
type RequestRepository interface {
	CreateRequest(ctx context.Context, request entities.AccessRequest) error
	GetRequest(ctx context.Context, tenantID, requestID string) (entities.AccessRequest, error)
	UpdateRequest(ctx context.Context, request entities.AccessRequest) error
	ListRequests(ctx context.Context, tenantID string, filter RequestFilter) ([]entities.AccessRequest, error)

	// ListPendingPastSLA returns pending, not-yet-overdue requests whose SLA
	// deadline precedes now. The sweep spans tenants; each returned row still
	// carries its own tenant id.
	ListPendingPastSLA(ctx context.Context, now time.Time, limit int) ([]entities.AccessRequest, error)
	// MarkOverdue flips is_overdue exactly once; repeated calls are no-ops.
	MarkOverdue(ctx context.Context, tenantID, requestID string, now time.Time) (bool, error)
}

// AppInfo is the directory's view of one application.
type AppInfo struct {
	AppID     string
	Name      string
	RiskScore int
}

// Directory is the read/write view over entitlement state owned elsewhere.
type Directory interface {
	GetApplication(ctx context.Context, tenantID, appID string) (AppInfo, error)
	// ManagerID returns the requester's manager, empty when unassigned.
	ManagerID(ctx context.Context, tenantID, userID string) (string, error)
	CountActiveEntitlements(ctx context.Context, tenantID, userID string) (int, error)
	HasActiveEntitlement(ctx context.Context, tenantID, userID, appID string) (bool, error)
	GrantEntitlement(ctx context.Context, tenantID, userID, appID, accessType, grantedBy string, expiresAt *time.Time, now time.Time) error
	UpdateEntitlementAccess(ctx context.Context, tenantID, userID, appID, accessType string, now time.Time) error
}

// ConflictChecker surfaces Segregation-of-Duties findings for a candidate
// grant. Implemented in bootstrap over the SoD engine.
type ConflictChecker interface {
	Check(ctx context.Context, tenantID, userID, appID string) ([]entities.ConflictSnapshot, error)
}

// EventEnvelope is the canonical cross-runtime event shape.
type EventEnvelope = contractsv1.Envelope

// EventPublisher delivers envelopes to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
