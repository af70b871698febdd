package httpadapter

import (
	"context"
	"log/slog"

	"castellan/contexts/governance/anomaly-service/application/commands"
	"castellan/contexts/governance/anomaly-service/application/queries"
	"castellan/contexts/governance/anomaly-service/domain/entities"
	"castellan/contexts/governance/anomaly-service/ports"
	httptransport "castellan/contexts/governance/anomaly-service/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	Evaluate       commands.EvaluateEventUseCase
	UpdateStatus   commands.UpdateDetectionStatusUseCase
	GetDetection   queries.GetDetectionUseCase
	ListDetections queries.ListDetectionsUseCase
	GetBaseline    queries.GetBaselineUseCase
	Logger         *slog.Logger
}

func (h Handler) EvaluateHandler(ctx context.Context, tenantID string, request httptransport.EvaluateEventRequest) ([]httptransport.DetectionResponse, error) {
	detections, err := h.Evaluate.Execute(ctx, commands.EvaluateEventCommand{
		TenantID:   tenantID,
		UserID:     request.UserID,
		AppID:      request.AppID,
		EventType:  request.EventType,
		IPAddress:  request.IPAddress,
		Location:   request.Location,
		OccurredAt: request.OccurredAt,
	})
	if err != nil {
		return nil, err
	}
	out := make([]httptransport.DetectionResponse, 0, len(detections))
	for _, detection := range detections {
		out = append(out, detectionResponse(detection))
	}
	return out, nil
}

func (h Handler) UpdateStatusHandler(ctx context.Context, tenantID, detectionID, actorID string, request httptransport.UpdateStatusRequest) (httptransport.DetectionResponse, error) {
	detection, err := h.UpdateStatus.Execute(ctx, commands.UpdateDetectionStatusCommand{
		TenantID:    tenantID,
		DetectionID: detectionID,
		Status:      entities.DetectionStatus(request.Status),
		ActorID:     actorID,
		Notes:       request.Notes,
	})
	if err != nil {
		return httptransport.DetectionResponse{}, err
	}
	return detectionResponse(detection), nil
}

func (h Handler) GetHandler(ctx context.Context, tenantID, detectionID string) (httptransport.DetectionResponse, error) {
	detection, err := h.GetDetection.Execute(ctx, queries.GetDetectionQuery{TenantID: tenantID, DetectionID: detectionID})
	if err != nil {
		return httptransport.DetectionResponse{}, err
	}
	return detectionResponse(detection), nil
}

func (h Handler) ListHandler(ctx context.Context, tenantID string, filter ports.DetectionFilter) ([]httptransport.DetectionResponse, error) {
	detections, err := h.ListDetections.Execute(ctx, queries.ListDetectionsQuery{TenantID: tenantID, Filter: filter})
	if err != nil {
		return nil, err
	}
	out := make([]httptransport.DetectionResponse, 0, len(detections))
	for _, detection := range detections {
		out = append(out, detectionResponse(detection))
	}
	return out, nil
}

func (h Handler) BaselineHandler(ctx context.Context, tenantID, userID string) (httptransport.BaselineResponse, error) {
	baseline, err := h.GetBaseline.Execute(ctx, queries.GetBaselineQuery{TenantID: tenantID, UserID: userID})
	if err != nil {
		return httptransport.BaselineResponse{}, err
	}
	days := make([]string, 0, len(baseline.TypicalDays))
	for _, day := range baseline.TypicalDays {
		days = append(days, day.String())
	}
	return httptransport.BaselineResponse{
		UserID:         baseline.UserID,
		StartHour:      baseline.StartHour,
		EndHour:        baseline.EndHour,
		TypicalDays:    days,
		KnownLocations: baseline.KnownLocations,
		AdminAppIDs:    baseline.AdminAppIDs,
		SampleCount:    baseline.SampleCount,
	}, nil
}

func detectionResponse(item entities.Detection) httptransport.DetectionResponse {
	return httptransport.DetectionResponse{
		DetectionID: item.DetectionID,
		UserID:      item.UserID,
		AnomalyType: string(item.AnomalyType),
		Severity:    string(item.Severity),
		Confidence:  item.Confidence,
		EventData: httptransport.EventSnapshot{
			AppID:      item.EventData.AppID,
			EventType:  item.EventData.EventType,
			IPAddress:  item.EventData.IPAddress,
			Location:   item.EventData.Location,
			OccurredAt: item.EventData.OccurredAt,
		},
		BaselineData: httptransport.BaselineSnapshot{
			StartHour:      item.BaselineData.StartHour,
			EndHour:        item.BaselineData.EndHour,
			TypicalDays:    item.BaselineData.TypicalDays,
			KnownLocations: item.BaselineData.KnownLocations,
			AdminAppIDs:    item.BaselineData.AdminAppIDs,
			SampleCount:    item.BaselineData.SampleCount,
		},
		Status:          string(item.Status),
		DetectedAt:      item.DetectedAt,
		ResolvedAt:      item.ResolvedAt,
		ResolvedBy:      item.ResolvedBy,
		ResolutionNotes: item.ResolutionNotes,
	}
}
