package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "castellan/contexts/governance/access-request-service/application"
	"castellan/contexts/governance/access-request-service/domain/entities"
	"castellan/contexts/governance/access-request-service/ports"
	contractsv1 "castellan/contracts/gen/events/v1"
)

// TopicOverdue carries pending requests that blew their review deadline.
const TopicOverdue = "access_request.overdue"

// OverdueChecker sweeps pending requests past their review deadline, flags
// them, and notifies the bus. The sweep spans tenants; flagging is
// idempotent so a request is announced at most once.
type OverdueChecker struct {
	Requests    ports.RequestRepository
	Publisher   ports.EventPublisher
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	BatchSize   int
	Logger      *slog.Logger
}

func (c OverdueChecker) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	limit := c.BatchSize
	if limit <= 0 {
		limit = 100
	}

	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}

	pending, err := c.Requests.ListPendingPastSLA(ctx, now, limit)
	if err != nil {
		logger.Error("overdue sweep list failed",
			"event", "access_request_overdue_list_failed",
			"module", "governance/access-request-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, request := range pending {
		flagged, err := c.Requests.MarkOverdue(ctx, request.TenantID, request.RequestID, now)
		if err != nil {
			return err
		}
		if !flagged {
			// Another sweep got there first.
			continue
		}
		if c.Publisher != nil {
			if err := c.publishOverdue(ctx, request, now); err != nil {
				logger.Error("overdue publish failed",
					"event", "access_request_overdue_publish_failed",
					"module", "governance/access-request-service",
					"layer", "worker",
					"tenant_id", request.TenantID,
					"request_id", request.RequestID,
					"error", err.Error(),
				)
				return err
			}
		}
		logger.Info("access request overdue",
			"event", "access_request_overdue",
			"module", "governance/access-request-service",
			"layer", "worker",
			"tenant_id", request.TenantID,
			"request_id", request.RequestID,
			"approver_id", request.ApproverID,
			"sla_due_at", request.SLADueAt,
		)
	}
	return nil
}

type overduePayload struct {
	RequestID   string    `json:"request_id"`
	TenantID    string    `json:"tenant_id"`
	RequesterID string    `json:"requester_id"`
	ApproverID  string    `json:"approver_id"`
	AppID       string    `json:"app_id"`
	RiskLevel   string    `json:"risk_level"`
	SLADueAt    time.Time `json:"sla_due_at"`
}

func (c OverdueChecker) publishOverdue(ctx context.Context, request entities.AccessRequest, now time.Time) error {
	eventID, err := c.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(overduePayload{
		RequestID:   request.RequestID,
		TenantID:    request.TenantID,
		RequesterID: request.RequesterID,
		ApproverID:  request.ApproverID,
		AppID:       request.AppID,
		RiskLevel:   string(request.RiskLevel),
		SLADueAt:    request.SLADueAt,
	})
	if err != nil {
		return err
	}
	return c.Publisher.Publish(ctx, TopicOverdue, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        TopicOverdue,
		OccurredAt:       now,
		SourceService:    "governance/access-request-service",
		SchemaVersion:    contractsv1.CurrentSchemaVersion,
		PartitionKeyPath: contractsv1.PartitionKeyPathTenant,
		PartitionKey:     request.TenantID,
		Data:             data,
	})
}
