package ports

import (
	"context"
	"time"

	"castellan/contexts/inventory/entitlement-service/domain/entities"
)

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	Category     string
	MinRiskScore int
}

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Repository owns durable inventory state. All reads and writes are
// tenant-scoped; implementations must never cross tenant boundaries.
type Repository interface {
	CreateApplication(ctx context.Context, app entities.Application) error
	GetApplication(ctx context.Context, tenantID, appID string) (entities.Application, error)
	ListApplications(ctx context.Context, tenantID string, filter ApplicationFilter) ([]entities.Application, error)

	CreateUser(ctx context.Context, user entities.User) error
	GetUser(ctx context.Context, tenantID, userID string) (entities.User, error)
	ListUsers(ctx context.Context, tenantID string) ([]entities.User, error)

	GrantEntitlement(ctx context.Context, grant entities.Entitlement) error
	UpdateEntitlementAccess(ctx context.Context, tenantID, userID, appID string, accessType entities.AccessType, now time.Time) error
	RevokeEntitlement(ctx context.Context, tenantID, userID, appID, revokedBy string, now time.Time) error
	ListUserEntitlements(ctx context.Context, tenantID, userID string) ([]entities.Entitlement, error)
	ListAppEntitlements(ctx context.Context, tenantID, appID string) ([]entities.Entitlement, error)
}
