package ports

import (
	"context"
	"time"

	contractsv1 "castellan/contracts/gen/events/v1"
	"castellan/contexts/governance/anomaly-service/domain/entities"
	"castellan/contexts/governance/anomaly-service/domain/services"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// DetectionFilter narrows detection listings.
type DetectionFilter struct {
	UserID      string
	Status      entities.DetectionStatus
	Severity    entities.Severity
	AnomalyType entities.AnomalyType
}

// DetectionRepository owns durable detection state, tenant-scoped.
type DetectionRepository interface {
	CreateDetection(ctx context.Context, detection entities.Detection) error
	GetDetection(ctx context.Context, tenantID, detectionID string) (entities.Detection, error)
	UpdateDetection(ctx context.Context, detection entities.Detection) error
	ListDetections(ctx context.Context, tenantID string, filter DetectionFilter) ([]entities.Detection, error)

	// HasRecentOpenDetection reports whether an open detection of the given
	// type for the user was created at or after since. This is the dedup
	// window guard.
	HasRecentOpenDetection(ctx context.Context, tenantID, userID string, anomalyType entities.AnomalyType, since time.Time) (bool, error)
}

// ActivityLog is the raw event store backing baselines and trailing-window
// counters.
type ActivityLog interface {
	RecordEvent(ctx context.Context, event entities.ActivityEvent) error
	// LoginSamples returns login events for the user at or after since.
	LoginSamples(ctx context.Context, tenantID, userID string, since time.Time) ([]services.LoginSample, error)
	CountEventsSince(ctx context.Context, tenantID, userID, eventType string, since time.Time) (int, error)
	CountDistinctAppsSince(ctx context.Context, tenantID, userID string, since time.Time) (int, error)
}

// Directory exposes the entitlement state the evaluator needs. Implemented
// in bootstrap over the inventory schema.
type Directory interface {
	// AdminAppIDs lists applications where the user holds an active
	// admin-or-owner entitlement.
	AdminAppIDs(ctx context.Context, tenantID, userID string) ([]string, error)
}

// EventEnvelope is the canonical cross-runtime event shape.
type EventEnvelope = contractsv1.Envelope

// EventPublisher delivers envelopes to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
