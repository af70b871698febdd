package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "castellan/contexts/governance/access-request-service/application"
	"castellan/contexts/governance/access-request-service/domain/entities"
	domainerrors "castellan/contexts/governance/access-request-service/domain/errors"
	"castellan/contexts/governance/access-request-service/ports"
)

// ReviewRequestCommand approves or denies a pending request.
type ReviewRequestCommand struct {
	TenantID   string
	RequestID  string
	Decision   entities.RequestStatus // approved or denied
	ApproverID string
	Notes      string
}

// ReviewRequestUseCase applies the review decision. Approval provisions the
// entitlement synchronously; a provisioning failure is recorded on the
// request and never rolls back the approval.
type ReviewRequestUseCase struct {
	Requests  ports.RequestRepository
	Directory ports.Directory
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (u ReviewRequestUseCase) Execute(ctx context.Context, cmd ReviewRequestCommand) (entities.AccessRequest, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	if cmd.TenantID == "" {
		return entities.AccessRequest{}, domainerrors.ErrTenantRequired
	}
	if cmd.Decision != entities.RequestStatusApproved && cmd.Decision != entities.RequestStatusDenied {
		return entities.AccessRequest{}, domainerrors.ErrInvalidDecision
	}

	request, err := u.Requests.GetRequest(ctx, cmd.TenantID, strings.TrimSpace(cmd.RequestID))
	if err != nil {
		return entities.AccessRequest{}, err
	}
	if request.Terminal() {
		return entities.AccessRequest{}, fmt.Errorf("%w: already %s", domainerrors.ErrRequestNotPending, request.Status)
	}

	now := u.Clock.Now().UTC()
	request.DecidedBy = strings.TrimSpace(cmd.ApproverID)
	request.DecisionNotes = strings.TrimSpace(cmd.Notes)
	request.DecidedAt = &now

	if cmd.Decision == entities.RequestStatusDenied {
		request.Status = entities.RequestStatusDenied
		if err := u.Requests.UpdateRequest(ctx, request); err != nil {
			return entities.AccessRequest{}, err
		}
		logger.Info("access request denied",
			"event", "access_request_denied",
			"module", "governance/access-request-service",
			"layer", "application",
			"tenant_id", request.TenantID,
			"request_id", request.RequestID,
			"approver_id", cmd.ApproverID,
		)
		return request, nil
	}

	request.Status = entities.RequestStatusApproved
	if err := u.provision(ctx, &request, now); err != nil {
		// Approval stays durable; the failure is data on the request.
		request.ProvisioningStatus = entities.ProvisioningFailed
		request.ProvisioningError = err.Error()
		logger.Error("provisioning failed after approval",
			"event", "access_request_provisioning_failed",
			"module", "governance/access-request-service",
			"layer", "application",
			"tenant_id", request.TenantID,
			"request_id", request.RequestID,
			"error", err.Error(),
		)
	} else {
		request.Status = entities.RequestStatusProvisioned
		request.ProvisioningStatus = entities.ProvisioningCompleted
	}

	if err := u.Requests.UpdateRequest(ctx, request); err != nil {
		return entities.AccessRequest{}, err
	}
	logger.Info("access request approved",
		"event", "access_request_approved",
		"module", "governance/access-request-service",
		"layer", "application",
		"tenant_id", request.TenantID,
		"request_id", request.RequestID,
		"approver_id", cmd.ApproverID,
		"provisioning_status", string(request.ProvisioningStatus),
	)
	return request, nil
}

func (u ReviewRequestUseCase) provision(ctx context.Context, request *entities.AccessRequest, now time.Time) error {
	var expiresAt *time.Time
	if request.DurationType == entities.DurationTemporary && request.DurationHours > 0 {
		expiry := now.Add(time.Duration(request.DurationHours) * time.Hour)
		expiresAt = &expiry
	}

	held, err := u.Directory.HasActiveEntitlement(ctx, request.TenantID, request.RequesterID, request.AppID)
	if err != nil {
		return err
	}
	if held {
		return u.Directory.UpdateEntitlementAccess(ctx, request.TenantID, request.RequesterID, request.AppID, request.AccessType, now)
	}
	return u.Directory.GrantEntitlement(ctx, request.TenantID, request.RequesterID, request.AppID, request.AccessType, request.DecidedBy, expiresAt, now)
}
