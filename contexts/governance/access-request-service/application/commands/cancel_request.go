package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "castellan/contexts/governance/access-request-service/application"
	"castellan/contexts/governance/access-request-service/domain/entities"
	domainerrors "castellan/contexts/governance/access-request-service/domain/errors"
	"castellan/contexts/governance/access-request-service/ports"
)

// CancelRequestCommand withdraws a pending request.
type CancelRequestCommand struct {
	TenantID  string
	RequestID string
	ActorID   string
}

// CancelRequestUseCase lets the original requester withdraw while pending.
type CancelRequestUseCase struct {
	Requests ports.RequestRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (u CancelRequestUseCase) Execute(ctx context.Context, cmd CancelRequestCommand) (entities.AccessRequest, error) {
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	if cmd.TenantID == "" {
		return entities.AccessRequest{}, domainerrors.ErrTenantRequired
	}

	request, err := u.Requests.GetRequest(ctx, cmd.TenantID, strings.TrimSpace(cmd.RequestID))
	if err != nil {
		return entities.AccessRequest{}, err
	}
	if strings.TrimSpace(cmd.ActorID) != request.RequesterID {
		return entities.AccessRequest{}, domainerrors.ErrNotRequester
	}
	if request.Terminal() {
		return entities.AccessRequest{}, fmt.Errorf("%w: already %s", domainerrors.ErrRequestNotPending, request.Status)
	}

	now := u.Clock.Now().UTC()
	request.Status = entities.RequestStatusCancelled
	request.DecidedAt = &now
	request.DecidedBy = request.RequesterID
	if err := u.Requests.UpdateRequest(ctx, request); err != nil {
		return entities.AccessRequest{}, err
	}

	application.ResolveLogger(u.Logger).Info("access request cancelled",
		"event", "access_request_cancelled",
		"module", "governance/access-request-service",
		"layer", "application",
		"tenant_id", request.TenantID,
		"request_id", request.RequestID,
		"requester_id", request.RequesterID,
	)
	return request, nil
}
