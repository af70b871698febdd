package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "castellan/contexts/governance/anomaly-service/application"
	"castellan/contexts/governance/anomaly-service/domain/entities"
	domainerrors "castellan/contexts/governance/anomaly-service/domain/errors"
	"castellan/contexts/governance/anomaly-service/ports"
)

// UpdateDetectionStatusCommand moves a detection through its workflow.
type UpdateDetectionStatusCommand struct {
	TenantID    string
	DetectionID string
	Status      entities.DetectionStatus
	ActorID     string
	Notes       string
}

// UpdateDetectionStatusUseCase applies triage decisions. Resolved and
// false-positive are terminal.
type UpdateDetectionStatusUseCase struct {
	Detections ports.DetectionRepository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (u UpdateDetectionStatusUseCase) Execute(ctx context.Context, cmd UpdateDetectionStatusCommand) (entities.Detection, error) {
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	if cmd.TenantID == "" {
		return entities.Detection{}, domainerrors.ErrTenantRequired
	}
	if !entities.ValidDetectionStatus(cmd.Status) || cmd.Status == entities.DetectionStatusOpen {
		return entities.Detection{}, domainerrors.ErrInvalidStatusChange
	}

	detection, err := u.Detections.GetDetection(ctx, cmd.TenantID, strings.TrimSpace(cmd.DetectionID))
	if err != nil {
		return entities.Detection{}, err
	}
	switch detection.Status {
	case entities.DetectionStatusOpen, entities.DetectionStatusInvestigating:
	default:
		return entities.Detection{}, fmt.Errorf("%w: already %s", domainerrors.ErrInvalidStatusChange, detection.Status)
	}

	detection.Status = cmd.Status
	if cmd.Status == entities.DetectionStatusResolved || cmd.Status == entities.DetectionStatusFalsePositive {
		now := u.Clock.Now().UTC()
		detection.ResolvedAt = &now
		detection.ResolvedBy = strings.TrimSpace(cmd.ActorID)
		detection.ResolutionNotes = strings.TrimSpace(cmd.Notes)
	}
	if err := u.Detections.UpdateDetection(ctx, detection); err != nil {
		return entities.Detection{}, err
	}

	application.ResolveLogger(u.Logger).Info("detection status updated",
		"event", "anomaly_status_updated",
		"module", "governance/anomaly-service",
		"layer", "application",
		"tenant_id", detection.TenantID,
		"detection_id", detection.DetectionID,
		"status", string(detection.Status),
		"actor_id", cmd.ActorID,
	)
	return detection, nil
}
