package ports

import (
	"context"
	"time"

	contractsv1 "castellan/contracts/gen/events/v1"
	"castellan/contexts/governance/sod-service/domain/entities"
	"castellan/contexts/governance/sod-service/domain/services"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for rules/violations/outbox rows.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// RuleFilter narrows rule listings.
type RuleFilter struct {
	ActiveOnly bool
	Framework  string
	AppID      string
}

// RuleRepository owns durable rule state, tenant-scoped.
type RuleRepository interface {
	CreateRule(ctx context.Context, rule entities.Rule) error
	GetRule(ctx context.Context, tenantID, ruleID string) (entities.Rule, error)
	UpdateRule(ctx context.Context, rule entities.Rule) error
	DeleteRule(ctx context.Context, tenantID, ruleID string) error
	ListRules(ctx context.Context, tenantID string, filter RuleFilter) ([]entities.Rule, error)
}

// ViolationFilter narrows violation listings.
type ViolationFilter struct {
	UserID   string
	RuleID   string
	Status   entities.ViolationStatus
	Severity entities.Severity
}

// ViolationRepository owns durable violation state, tenant-scoped.
// CreateViolation must fail with the duplicate-open sentinel when an open
// violation already exists for (tenant, user, rule); the postgres adapter
// backs this with a partial unique index so concurrent scans cannot both
// insert.
type ViolationRepository interface {
	CreateViolation(ctx context.Context, violation entities.Violation) error
	GetViolation(ctx context.Context, tenantID, violationID string) (entities.Violation, error)
	FindOpenViolation(ctx context.Context, tenantID, userID, ruleID string) (entities.Violation, bool, error)
	UpdateViolation(ctx context.Context, violation entities.Violation) error
	ListViolations(ctx context.Context, tenantID string, filter ViolationFilter) ([]entities.Violation, error)
	ResolveOpenViolationsForRule(ctx context.Context, tenantID, ruleID string, status entities.ViolationStatus, notes string, now time.Time) (int, error)
	DeleteViolationsForRule(ctx context.Context, tenantID, ruleID string) error
}

// Directory is the read/write view over entitlement state owned elsewhere.
// The engine only calls through this port; it never owns the records.
type Directory interface {
	ListUserIDs(ctx context.Context, tenantID string) ([]string, error)
	ListUserHeldApps(ctx context.Context, tenantID, userID string) ([]services.HeldApp, error)
	RevokeEntitlement(ctx context.Context, tenantID, userID, appID, revokedBy string, now time.Time) error
}

// EventEnvelope is the canonical cross-runtime event shape.
type EventEnvelope = contractsv1.Envelope

// OutboxMessage is one pending event row.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxWriter persists events alongside state changes for relay delivery.
type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// OutboxRepository is consumed by the relay worker.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher delivers envelopes to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
