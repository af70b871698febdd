package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "castellan/contexts/governance/anomaly-service/application"
	"castellan/contexts/governance/anomaly-service/domain/entities"
	domainerrors "castellan/contexts/governance/anomaly-service/domain/errors"
	"castellan/contexts/governance/anomaly-service/domain/services"
	"castellan/contexts/governance/anomaly-service/ports"
	contractsv1 "castellan/contracts/gen/events/v1"
)

// TopicDetected carries newly created anomaly detections.
const TopicDetected = "anomaly.detected"

const (
	baselineWindow   = 30 * 24 * time.Hour
	dedupWindow      = 60 * time.Minute
	downloadWindow   = 60 * time.Minute
	appSwitchWindow  = 60 * time.Minute
	failedLoginSpike = 10 * time.Minute
)

// EvaluateEventCommand is one observed activity event to assess.
type EvaluateEventCommand struct {
	TenantID   string
	UserID     string
	AppID      string
	EventType  string
	IPAddress  string
	Location   string
	OccurredAt time.Time
}

// EvaluateEventUseCase records the event, derives the user's baseline, runs
// the rule catalog, and persists one detection per firing rule outside its
// dedup window. Returns the detections created by this call.
type EvaluateEventUseCase struct {
	Activity    ports.ActivityLog
	Detections  ports.DetectionRepository
	Directory   ports.Directory
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u EvaluateEventUseCase) Execute(ctx context.Context, cmd EvaluateEventCommand) ([]entities.Detection, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	cmd.EventType = strings.TrimSpace(strings.ToLower(cmd.EventType))
	if cmd.TenantID == "" {
		return nil, domainerrors.ErrTenantRequired
	}
	if cmd.UserID == "" || cmd.EventType == "" {
		return nil, domainerrors.ErrInvalidEventInput
	}

	now := u.Clock.Now().UTC()
	occurredAt := cmd.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}
	occurredAt = occurredAt.UTC()

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return nil, err
	}
	event := entities.ActivityEvent{
		EventID:    eventID,
		TenantID:   cmd.TenantID,
		UserID:     cmd.UserID,
		AppID:      strings.TrimSpace(cmd.AppID),
		EventType:  cmd.EventType,
		IPAddress:  strings.TrimSpace(cmd.IPAddress),
		Location:   strings.TrimSpace(cmd.Location),
		OccurredAt: occurredAt,
	}
	// Record first so trailing-window counters include this event.
	if err := u.Activity.RecordEvent(ctx, event); err != nil {
		return nil, err
	}

	samples, err := u.Activity.LoginSamples(ctx, cmd.TenantID, cmd.UserID, occurredAt.Add(-baselineWindow))
	if err != nil {
		return nil, err
	}
	adminApps, err := u.Directory.AdminAppIDs(ctx, cmd.TenantID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	baseline := services.ComputeBaseline(cmd.UserID, samples, adminApps)

	stats := services.ActivityStats{}
	stats.DownloadsLastHour, err = u.Activity.CountEventsSince(ctx, cmd.TenantID, cmd.UserID, entities.EventTypeDownload, occurredAt.Add(-downloadWindow))
	if err != nil {
		return nil, err
	}
	stats.DistinctAppsLastHour, err = u.Activity.CountDistinctAppsSince(ctx, cmd.TenantID, cmd.UserID, occurredAt.Add(-appSwitchWindow))
	if err != nil {
		return nil, err
	}
	stats.FailedLoginsLast10Min, err = u.Activity.CountEventsSince(ctx, cmd.TenantID, cmd.UserID, entities.EventTypeFailedLogin, occurredAt.Add(-failedLoginSpike))
	if err != nil {
		return nil, err
	}

	hits := services.EvaluateRules(event, baseline, stats)
	if len(hits) == 0 {
		return nil, nil
	}

	baselineSnapshot := snapshotBaseline(baseline)
	eventSnapshot := entities.EventSnapshot{
		AppID:      event.AppID,
		EventType:  event.EventType,
		IPAddress:  event.IPAddress,
		Location:   event.Location,
		OccurredAt: event.OccurredAt,
	}

	var created []entities.Detection
	for _, hit := range hits {
		suppressed, err := u.Detections.HasRecentOpenDetection(ctx, cmd.TenantID, cmd.UserID, hit.Type, now.Add(-dedupWindow))
		if err != nil {
			return created, err
		}
		if suppressed {
			continue
		}

		detectionID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return created, err
		}
		detection := entities.Detection{
			DetectionID:  detectionID,
			TenantID:     cmd.TenantID,
			UserID:       cmd.UserID,
			AnomalyType:  hit.Type,
			Severity:     hit.Severity,
			Confidence:   hit.Confidence,
			EventData:    eventSnapshot,
			BaselineData: baselineSnapshot,
			Status:       entities.DetectionStatusOpen,
			DetectedAt:   now,
		}
		if err := u.Detections.CreateDetection(ctx, detection); err != nil {
			return created, err
		}
		created = append(created, detection)

		logger.Info("anomaly detected",
			"event", "anomaly_detected",
			"module", "governance/anomaly-service",
			"layer", "application",
			"tenant_id", cmd.TenantID,
			"user_id", cmd.UserID,
			"anomaly_type", string(hit.Type),
			"severity", string(hit.Severity),
			"confidence", hit.Confidence,
		)

		if u.Publisher != nil {
			if err := u.publishDetected(ctx, detection); err != nil {
				logger.Error("anomaly publish failed",
					"event", "anomaly_publish_failed",
					"module", "governance/anomaly-service",
					"layer", "application",
					"tenant_id", cmd.TenantID,
					"detection_id", detection.DetectionID,
					"error", err.Error(),
				)
				return created, err
			}
		}
	}
	return created, nil
}

func snapshotBaseline(baseline entities.Baseline) entities.BaselineSnapshot {
	days := make([]string, 0, len(baseline.TypicalDays))
	for _, day := range baseline.TypicalDays {
		days = append(days, day.String())
	}
	return entities.BaselineSnapshot{
		StartHour:      baseline.StartHour,
		EndHour:        baseline.EndHour,
		TypicalDays:    days,
		KnownLocations: baseline.KnownLocations,
		AdminAppIDs:    baseline.AdminAppIDs,
		SampleCount:    baseline.SampleCount,
	}
}

type detectedPayload struct {
	DetectionID string `json:"detection_id"`
	TenantID    string `json:"tenant_id"`
	UserID      string `json:"user_id"`
	AnomalyType string `json:"anomaly_type"`
	Severity    string `json:"severity"`
	Confidence  int    `json:"confidence"`
	EventType   string `json:"event_type"`
	AppID       string `json:"app_id,omitempty"`
}

func (u EvaluateEventUseCase) publishDetected(ctx context.Context, detection entities.Detection) error {
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(detectedPayload{
		DetectionID: detection.DetectionID,
		TenantID:    detection.TenantID,
		UserID:      detection.UserID,
		AnomalyType: string(detection.AnomalyType),
		Severity:    string(detection.Severity),
		Confidence:  detection.Confidence,
		EventType:   detection.EventData.EventType,
		AppID:       detection.EventData.AppID,
	})
	if err != nil {
		return err
	}
	return u.Publisher.Publish(ctx, TopicDetected, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        TopicDetected,
		OccurredAt:       detection.DetectedAt,
		SourceService:    "governance/anomaly-service",
		SchemaVersion:    contractsv1.CurrentSchemaVersion,
		PartitionKeyPath: contractsv1.PartitionKeyPathTenant,
		PartitionKey:     detection.TenantID,
		Data:             data,
	})
}
