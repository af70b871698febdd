package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "castellan/contexts/governance/access-request-service/application"
	"castellan/contexts/governance/access-request-service/domain/entities"
	domainerrors "castellan/contexts/governance/access-request-service/domain/errors"
	"castellan/contexts/governance/access-request-service/domain/services"
	"castellan/contexts/governance/access-request-service/ports"
	contractsv1 "castellan/contracts/gen/events/v1"
)

// TopicHighRisk carries submissions assessed at high or critical risk.
const TopicHighRisk = "access_request.high_risk"

// SubmitRequestCommand contains transport-agnostic submission input.
type SubmitRequestCommand struct {
	TenantID      string
	RequesterID   string
	AppID         string
	AccessType    string
	Justification string
	DurationType  entities.DurationType
	DurationHours int
}

// SubmitRequestUseCase validates the ask, assesses risk and SoD conflicts,
// routes to the requester's manager, and persists the pending request.
type SubmitRequestUseCase struct {
	Requests    ports.RequestRepository
	Directory   ports.Directory
	Conflicts   ports.ConflictChecker
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u SubmitRequestUseCase) Execute(ctx context.Context, cmd SubmitRequestCommand) (entities.AccessRequest, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	cmd.RequesterID = strings.TrimSpace(cmd.RequesterID)
	cmd.AppID = strings.TrimSpace(cmd.AppID)
	cmd.AccessType = strings.TrimSpace(strings.ToLower(cmd.AccessType))

	if cmd.TenantID == "" {
		return entities.AccessRequest{}, domainerrors.ErrTenantRequired
	}
	switch cmd.AccessType {
	case "viewer", "editor", "admin", "owner":
	default:
		return entities.AccessRequest{}, domainerrors.ErrInvalidAccessType
	}
	if strings.TrimSpace(cmd.Justification) == "" {
		return entities.AccessRequest{}, domainerrors.ErrJustificationMissing
	}
	switch cmd.DurationType {
	case entities.DurationPermanent:
		cmd.DurationHours = 0
	case entities.DurationTemporary:
		if cmd.DurationHours <= 0 {
			return entities.AccessRequest{}, domainerrors.ErrInvalidDuration
		}
	default:
		return entities.AccessRequest{}, domainerrors.ErrInvalidDuration
	}

	app, err := u.Directory.GetApplication(ctx, cmd.TenantID, cmd.AppID)
	if err != nil {
		return entities.AccessRequest{}, err
	}
	conflicts, err := u.Conflicts.Check(ctx, cmd.TenantID, cmd.RequesterID, cmd.AppID)
	if err != nil {
		return entities.AccessRequest{}, err
	}
	entitlementCount, err := u.Directory.CountActiveEntitlements(ctx, cmd.TenantID, cmd.RequesterID)
	if err != nil {
		return entities.AccessRequest{}, err
	}

	assessment := services.ScoreRisk(services.RiskInput{
		AppRiskScore:     app.RiskScore,
		AccessType:       cmd.AccessType,
		Conflicts:        conflicts,
		EntitlementCount: entitlementCount,
	})

	// A requester without a manager leaves the request unrouted; nothing
	// escalates it. Kept intentionally pending a product decision.
	approverID, err := u.Directory.ManagerID(ctx, cmd.TenantID, cmd.RequesterID)
	if err != nil {
		return entities.AccessRequest{}, err
	}

	requestID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.AccessRequest{}, err
	}
	now := u.Clock.Now().UTC()
	request := entities.AccessRequest{
		RequestID:     requestID,
		TenantID:      cmd.TenantID,
		RequesterID:   cmd.RequesterID,
		AppID:         app.AppID,
		AppName:       app.Name,
		AccessType:    cmd.AccessType,
		Justification: strings.TrimSpace(cmd.Justification),
		DurationType:  cmd.DurationType,
		DurationHours: cmd.DurationHours,
		Status:        entities.RequestStatusPending,
		RiskScore:     assessment.Score,
		RiskLevel:     assessment.Level,
		RiskFactors:   assessment.Factors,
		SodConflicts:  conflicts,
		ApproverID:    approverID,
		SubmittedAt:   now,
		SLADueAt:      services.SLADueAt(assessment.Level, now),
	}
	if err := u.Requests.CreateRequest(ctx, request); err != nil {
		return entities.AccessRequest{}, err
	}

	logger.Info("access request submitted",
		"event", "access_request_submitted",
		"module", "governance/access-request-service",
		"layer", "application",
		"tenant_id", request.TenantID,
		"request_id", request.RequestID,
		"requester_id", request.RequesterID,
		"app_id", request.AppID,
		"risk_score", request.RiskScore,
		"risk_level", string(request.RiskLevel),
		"conflict_count", len(request.SodConflicts),
		"approver_id", request.ApproverID,
	)

	if request.RiskLevel.Elevated() && u.Publisher != nil {
		if err := u.publishHighRisk(ctx, request); err != nil {
			logger.Error("high risk event publish failed",
				"event", "access_request_high_risk_publish_failed",
				"module", "governance/access-request-service",
				"layer", "application",
				"tenant_id", request.TenantID,
				"request_id", request.RequestID,
				"error", err.Error(),
			)
		}
	}
	return request, nil
}

type highRiskPayload struct {
	RequestID   string `json:"request_id"`
	TenantID    string `json:"tenant_id"`
	RequesterID string `json:"requester_id"`
	AppID       string `json:"app_id"`
	AppName     string `json:"app_name"`
	AccessType  string `json:"access_type"`
	RiskScore   int    `json:"risk_score"`
	RiskLevel   string `json:"risk_level"`
}

func (u SubmitRequestUseCase) publishHighRisk(ctx context.Context, request entities.AccessRequest) error {
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(highRiskPayload{
		RequestID:   request.RequestID,
		TenantID:    request.TenantID,
		RequesterID: request.RequesterID,
		AppID:       request.AppID,
		AppName:     request.AppName,
		AccessType:  request.AccessType,
		RiskScore:   request.RiskScore,
		RiskLevel:   string(request.RiskLevel),
	})
	if err != nil {
		return err
	}
	return u.Publisher.Publish(ctx, TopicHighRisk, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        TopicHighRisk,
		OccurredAt:       request.SubmittedAt,
		SourceService:    "governance/access-request-service",
		SchemaVersion:    contractsv1.CurrentSchemaVersion,
		PartitionKeyPath: contractsv1.PartitionKeyPathTenant,
		PartitionKey:     request.TenantID,
		Data:             data,
	})
}
