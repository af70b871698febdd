package commands

import (
	"context"
	"log/slog"
	"strings"

	application "castellan/contexts/governance/sod-service/application"
	"castellan/contexts/governance/sod-service/domain/entities"
	domainerrors "castellan/contexts/governance/sod-service/domain/errors"
	"castellan/contexts/governance/sod-service/ports"
)

// RemediateViolationCommand revokes one side of an open violation.
type RemediateViolationCommand struct {
	TenantID    string
	ViolationID string
	RevokeAppID string
	ActorID     string
	Notes       string
}

// RemediateViolationUseCase revokes the chosen entitlement and closes the
// violation as remediated. RevokeAppID must be one of the violation's two
// apps; anything else is rejected before any side effect.
type RemediateViolationUseCase struct {
	Violations ports.ViolationRepository
	Directory  ports.Directory
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (u RemediateViolationUseCase) Execute(ctx context.Context, cmd RemediateViolationCommand) (entities.Violation, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	cmd.RevokeAppID = strings.TrimSpace(cmd.RevokeAppID)
	if cmd.TenantID == "" {
		return entities.Violation{}, domainerrors.ErrTenantRequired
	}

	violation, err := u.Violations.GetViolation(ctx, cmd.TenantID, strings.TrimSpace(cmd.ViolationID))
	if err != nil {
		return entities.Violation{}, err
	}
	if violation.Status != entities.ViolationStatusOpen {
		return entities.Violation{}, domainerrors.ErrViolationNotOpen
	}
	if !violation.Covers(cmd.RevokeAppID) {
		return entities.Violation{}, domainerrors.ErrRevokeAppNotInViolation
	}

	now := u.Clock.Now().UTC()
	if err := u.Directory.RevokeEntitlement(ctx, cmd.TenantID, violation.UserID, cmd.RevokeAppID, cmd.ActorID, now); err != nil {
		return entities.Violation{}, err
	}

	violation.Status = entities.ViolationStatusRemediated
	violation.ResolvedAt = &now
	violation.ResolvedBy = strings.TrimSpace(cmd.ActorID)
	violation.ResolutionNotes = strings.TrimSpace(cmd.Notes)
	if err := u.Violations.UpdateViolation(ctx, violation); err != nil {
		return entities.Violation{}, err
	}

	logger.Info("violation remediated",
		"event", "sod_violation_remediated",
		"module", "governance/sod-service",
		"layer", "application",
		"tenant_id", cmd.TenantID,
		"violation_id", violation.ViolationID,
		"user_id", violation.UserID,
		"revoked_app_id", cmd.RevokeAppID,
		"actor_id", cmd.ActorID,
	)
	return violation, nil
}

// AcceptViolationCommand marks an open violation as an accepted risk.
type AcceptViolationCommand struct {
	TenantID      string
	ViolationID   string
	ActorID       string
	Justification string
}

// AcceptViolationUseCase closes an open violation without revoking access.
type AcceptViolationUseCase struct {
	Violations ports.ViolationRepository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (u AcceptViolationUseCase) Execute(ctx context.Context, cmd AcceptViolationCommand) (entities.Violation, error) {
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	if cmd.TenantID == "" {
		return entities.Violation{}, domainerrors.ErrTenantRequired
	}

	violation, err := u.Violations.GetViolation(ctx, cmd.TenantID, strings.TrimSpace(cmd.ViolationID))
	if err != nil {
		return entities.Violation{}, err
	}
	if violation.Status != entities.ViolationStatusOpen {
		return entities.Violation{}, domainerrors.ErrViolationNotOpen
	}

	now := u.Clock.Now().UTC()
	violation.Status = entities.ViolationStatusAccepted
	violation.ResolvedAt = &now
	violation.ResolvedBy = strings.TrimSpace(cmd.ActorID)
	violation.ResolutionNotes = strings.TrimSpace(cmd.Justification)
	if err := u.Violations.UpdateViolation(ctx, violation); err != nil {
		return entities.Violation{}, err
	}

	application.ResolveLogger(u.Logger).Info("violation accepted",
		"event", "sod_violation_accepted",
		"module", "governance/sod-service",
		"layer", "application",
		"tenant_id", cmd.TenantID,
		"violation_id", violation.ViolationID,
		"actor_id", cmd.ActorID,
	)
	return violation, nil
}
