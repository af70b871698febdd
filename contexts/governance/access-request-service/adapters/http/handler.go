package httpadapter

import (
	"context"
	"log/slog"

	"castellan/contexts/governance/access-request-service/application/commands"
	"castellan/contexts/governance/access-request-service/application/queries"
	"castellan/contexts/governance/access-request-service/domain/entities"
	httptransport "castellan/contexts/governance/access-request-service/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	Submit       commands.SubmitRequestUseCase
	Review       commands.ReviewRequestUseCase
	Cancel       commands.CancelRequestUseCase
	GetRequest   queries.GetRequestUseCase
	ListRequests queries.ListRequestsUseCase
	Logger       *slog.Logger
}

func (h Handler) SubmitHandler(ctx context.Context, tenantID, requesterID string, request httptransport.SubmitRequestRequest) (httptransport.AccessRequestResponse, error) {
	item, err := h.Submit.Execute(ctx, commands.SubmitRequestCommand{
		TenantID:      tenantID,
		RequesterID:   requesterID,
		AppID:         request.AppID,
		AccessType:    request.AccessType,
		Justification: request.Justification,
		DurationType:  entities.DurationType(request.DurationType),
		DurationHours: request.DurationHours,
	})
	if err != nil {
		return httptransport.AccessRequestResponse{}, err
	}
	return requestResponse(item), nil
}

func (h Handler) ReviewHandler(ctx context.Context, tenantID, requestID, approverID string, request httptransport.ReviewRequestRequest) (httptransport.AccessRequestResponse, error) {
	item, err := h.Review.Execute(ctx, commands.ReviewRequestCommand{
		TenantID:   tenantID,
		RequestID:  requestID,
		Decision:   entities.RequestStatus(request.Decision),
		ApproverID: approverID,
		Notes:      request.Notes,
	})
	if err != nil {
		return httptransport.AccessRequestResponse{}, err
	}
	return requestResponse(item), nil
}

func (h Handler) CancelHandler(ctx context.Context, tenantID, requestID, actorID string) (httptransport.AccessRequestResponse, error) {
	item, err := h.Cancel.Execute(ctx, commands.CancelRequestCommand{
		TenantID:  tenantID,
		RequestID: requestID,
		ActorID:   actorID,
	})
	if err != nil {
		return httptransport.AccessRequestResponse{}, err
	}
	return requestResponse(item), nil
}

func (h Handler) GetHandler(ctx context.Context, tenantID, requestID string) (httptransport.AccessRequestResponse, error) {
	item, err := h.GetRequest.Execute(ctx, queries.GetRequestQuery{TenantID: tenantID, RequestID: requestID})
	if err != nil {
		return httptransport.AccessRequestResponse{}, err
	}
	return requestResponse(item), nil
}

func (h Handler) ListHandler(ctx context.Context, tenantID, requesterID, approverID, status string) ([]httptransport.AccessRequestResponse, error) {
	items, err := h.ListRequests.Execute(ctx, queries.ListRequestsQuery{
		TenantID:    tenantID,
		RequesterID: requesterID,
		ApproverID:  approverID,
		Status:      entities.RequestStatus(status),
	})
	if err != nil {
		return nil, err
	}
	out := make([]httptransport.AccessRequestResponse, 0, len(items))
	for _, item := range items {
		out = append(out, requestResponse(item))
	}
	return out, nil
}

func requestResponse(item entities.AccessRequest) httptransport.AccessRequestResponse {
	conflicts := make([]httptransport.ConflictSnapshotResponse, 0, len(item.SodConflicts))
	for _, conflict := range item.SodConflicts {
		conflicts = append(conflicts, httptransport.ConflictSnapshotResponse{
			RuleID:      conflict.RuleID,
			RuleName:    conflict.RuleName,
			Severity:    conflict.Severity,
			HeldAppID:   conflict.HeldAppID,
			HeldAppName: conflict.HeldAppName,
			Rationale:   conflict.Rationale,
		})
	}
	return httptransport.AccessRequestResponse{
		RequestID:          item.RequestID,
		RequesterID:        item.RequesterID,
		AppID:              item.AppID,
		AppName:            item.AppName,
		AccessType:         item.AccessType,
		Justification:      item.Justification,
		DurationType:       string(item.DurationType),
		DurationHours:      item.DurationHours,
		Status:             string(item.Status),
		RiskScore:          item.RiskScore,
		RiskLevel:          string(item.RiskLevel),
		RiskFactors:        item.RiskFactors,
		SodConflicts:       conflicts,
		ApproverID:         item.ApproverID,
		DecidedBy:          item.DecidedBy,
		DecisionNotes:      item.DecisionNotes,
		SubmittedAt:        item.SubmittedAt,
		DecidedAt:          item.DecidedAt,
		SLADueAt:           item.SLADueAt,
		IsOverdue:          item.IsOverdue,
		ProvisioningStatus: string(item.ProvisioningStatus),
		ProvisioningError:  item.ProvisioningError,
	}
}
